package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"campaignterm/internal/dashboard"
	"campaignterm/internal/model"
	"campaignterm/internal/report"
	"campaignterm/internal/upload"
	"campaignterm/internal/util"
	"campaignterm/internal/validate"
)

const bodyWidth = 60

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	path := fs.String("file", "", "Spreadsheet to upload (.xlsx or .xls)")
	campaign := fs.String("campaign", "", "Campaign (GOLY, MPLY)")
	emailType := fs.String("email-type", "", `Email type ("Regular", "Follow up 1")`)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	file, err := openUploadFile(*path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := upload.NewSession(e.client, upload.WithRecorder(e.db))
	last := -1
	summary, err := session.Upload(ctx, file, model.Campaign(*campaign), model.EmailType(*emailType), func(pct int) {
		if pct != last {
			last = pct
			fmt.Fprintf(os.Stderr, "\rUploading %s: %3d%%", file.Name, pct)
		}
	})
	if last >= 0 {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fmt.Fprintf(os.Stderr, "  %s\n", fe.Error())
			}
			return errors.New("upload not sent")
		}
		return fmt.Errorf("upload failed: %s", session.Reason())
	}

	if summary.Message != "" {
		fmt.Println(summary.Message)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total rows in file\t%s\n", humanize.Comma(int64(summary.TotalRowsInFile)))
	fmt.Fprintf(w, "Inserted\t%s\n", humanize.Comma(int64(summary.Inserted)))
	fmt.Fprintf(w, "Updated\t%s\n", humanize.Comma(int64(summary.Updated)))
	fmt.Fprintf(w, "Skipped\t%s\n", humanize.Comma(int64(summary.Skipped)))
	fmt.Fprintf(w, "Duplicates (no change)\t%s\n", humanize.Comma(int64(summary.DuplicatesNoChange)))
	fmt.Fprintf(w, "Unsubscribed overrides\t%s\n", humanize.Comma(int64(summary.UnsubscribedOverrides)))
	return w.Flush()
}

// openUploadFile resolves path into an UploadFile. An empty path yields nil
// so validation reports the missing file.
func openUploadFile(path string) (*model.UploadFile, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &model.UploadFile{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: validate.DetectMIME(path),
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	kind := fs.String("type", "sent", "Report type (sent, responds)")
	campaign := fs.String("campaign", string(dashboard.DefaultCampaign), "Campaign (GOLY, MPLY)")
	from := fs.String("from", "", "First day, YYYY-MM-DD (default today)")
	to := fs.String("to", "", "Last day, YYYY-MM-DD (default from)")
	page := fs.Int("page", 1, "Page number")
	size := fs.String("page-size", model.DefaultPageSize.String(), "Rows per page (10, 20, 50, 100, 500, All)")
	category := fs.String("category", report.AllCategories, "Response category (warmup variant)")
	statsType := fs.String("stats-type", string(model.EmailTypeRegular), "Email type for the summary cards (warmup variant)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	coord := report.NewCoordinator()
	dash := dashboard.New(coord, e.cfg.DashboardOptions(time.Now()))
	if err := configureDashboard(dash, *kind, *campaign, *from, *to, *size, *category, *statsType); err != nil {
		return err
	}
	dash.SetPage(*page)

	req, ok := dash.Sync()
	if !ok {
		return errors.New("nothing to fetch")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	var resp report.Response
	g.Go(func() error {
		resp = req.Do(gctx, e.client)
		return resp.Err
	})
	var options []model.ResponseOption
	if dash.HasRespondsFilter() && dash.Active() == model.KindResponds {
		g.Go(func() error {
			opts, err := e.client.RespondsOptions(gctx)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to load response options")
				return nil
			}
			options = opts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Report request failed")
		return fmt.Errorf("unable to load email data: %w", err)
	}
	if coord.Apply(resp) != report.Published {
		return errors.New("unable to load email data")
	}

	printReport(os.Stdout, dash, options)
	return nil
}

func configureDashboard(dash *dashboard.Dashboard, kind, campaign, from, to, size, category, statsType string) error {
	switch kind {
	case "sent":
	case "responds":
		dash.SwitchTab(model.KindResponds)
	default:
		return fmt.Errorf("unknown report type %q", kind)
	}
	if err := dash.SetCampaign(model.Campaign(campaign)); err != nil {
		return err
	}
	if from != "" {
		f, err := model.ParseDate(from)
		if err != nil {
			return err
		}
		t := f
		if to != "" {
			if t, err = model.ParseDate(to); err != nil {
				return err
			}
		}
		if err := dash.SetDateRange(f, t); err != nil {
			return err
		}
	}
	ps, err := model.ParsePageSize(size)
	if err != nil {
		return err
	}
	dash.SetPageSize(ps)
	if dash.HasRespondsFilter() {
		dash.SetRespondsCategory(category)
		if err := dash.SetStatsEmailType(model.EmailType(statsType)); err != nil {
			return err
		}
	}
	return nil
}

func printReport(out io.Writer, dash *dashboard.Dashboard, options []model.ResponseOption) {
	if s, ok := dash.Summary(); ok {
		fmt.Fprintf(out, "Sent %s  Unsubscribed %s  Positive %s  Not responded %s\n\n",
			humanize.Comma(int64(s.Sent)), humanize.Comma(int64(s.Unsubscribed)),
			humanize.Comma(int64(s.PositiveResponses)), humanize.Comma(int64(s.NotResponded)))
	}
	if len(options) > 0 {
		labels := make([]string, len(options))
		for i, o := range options {
			labels[i] = o.Label
		}
		fmt.Fprintf(out, "Categories: %s\n\n", strings.Join(labels, ", "))
	}

	rows := dash.Rows()
	fmt.Fprintln(out, dashboard.LoadedMessage(len(rows)))
	if len(rows) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(dash.Columns(dash.Active()), "\t"))
	for _, r := range rows {
		cells := dash.Cells(r)
		for i := range cells {
			cells[i] = util.Truncate(cells[i], bodyWidth)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	var pages []string
	for _, it := range dash.PageItems() {
		switch {
		case it.Ellipsis:
			pages = append(pages, "...")
		case it.Page == dash.Page():
			pages = append(pages, "["+strconv.Itoa(it.Page)+"]")
		default:
			pages = append(pages, strconv.Itoa(it.Page))
		}
	}
	fmt.Fprintf(out, "\nPage %d of %d (%s records)  %s\n",
		dash.Page(), dash.TotalPages(), humanize.Comma(int64(dash.TotalRecords())), strings.Join(pages, " "))
}

func runUnsubscribe(args []string) error {
	fs := flag.NewFlagSet("unsubscribe", flag.ContinueOnError)
	k := fs.String("k", "", "Tracking key")
	to := fs.String("to", "", "Recipient email")
	from := fs.String("from", "", "Sender email")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	req := model.UnsubscribeRequest{K: strings.TrimSpace(*k), To: *to, From: *from}
	if n := util.NormalizeAddress(req.To); n != "" {
		req.To = n
	}
	if n := util.NormalizeAddress(req.From); n != "" {
		req.From = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.HTTPTimeout)
	defer cancel()
	res, err := e.client.Unsubscribe(ctx, req)
	if err != nil {
		return err
	}
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	if res.IsSubscribed == 0 {
		fmt.Printf("%s will no longer receive mail from %s\n", res.ReceiverEmail, res.SenderEmail)
	} else {
		fmt.Printf("%s is still subscribed\n", res.ReceiverEmail)
	}
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "Number of uploads to show (0 for all)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	recs, err := e.db.ListUploads(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No uploads yet")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tFILE\tSIZE\tCAMPAIGN\tTYPE\tRESULT")
	for _, r := range recs {
		result := fmt.Sprintf("%d inserted, %d updated", r.Summary.Inserted, r.Summary.Updated)
		if r.Reason != "" {
			result = r.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(r.CreatedAt), r.FileName, humanize.IBytes(uint64(max(r.SizeBytes, 0))),
			r.Campaign, r.EmailType, result)
	}
	return w.Flush()
}
