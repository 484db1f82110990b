package api

import (
	"net/http"
	"slices"

	"github.com/seenimoa/jsdabond/internal/analysis/curve"
	"github.com/seenimoa/jsdabond/internal/pipeline"
	"github.com/seenimoa/jsdabond/internal/report"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// handleViewer renders the viewer page for ?date=&issue=&prefix=.
// Without a date it shows the latest published file. Without an issue, or
// with one the date does not list, it shows the first issue.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	chartCfg := report.Sized(s.cfg.Chart.Width, s.cfg.Chart.Height)
	data := report.ViewerData{
		MinDate: utils.FormatDateJST(s.svc.MinDate()),
		MaxDate: utils.FormatDateJST(s.svc.Today()),
		Date:    r.URL.Query().Get("date"),
		Issue:   r.URL.Query().Get("issue"),
		Prefix:  boolParam(r, "prefix"),
	}
	status := http.StatusOK

	fail := func(err error) {
		s.logError(r, err)
		data.Error = s.svc.UserMessage(err)
		status = pipeline.HTTPStatus(err)
	}

	ds, err := s.dataset(r)
	if err != nil {
		fail(err)
	} else {
		data.Date = utils.FormatDateJST(ds.Date)
		data.SourceURL = ds.URL
		data.Unmapped = ds.Unmapped
		data.SetTable(ds.Table, report.DefaultPreviewRows)

		data.Issues = curve.Issues(ds.Quotes)
		if len(data.Issues) == 0 {
			fail(curve.ErrNoIssues)
		} else {
			// An issue kept from another date's selector may not trade on this one.
			if !data.Prefix && !slices.Contains(data.Issues, data.Issue) {
				data.Issue = data.Issues[0]
			}
			c, err := curve.Build(ds.Quotes, ds.Date, curve.Filter{Issue: data.Issue, Prefix: data.Prefix})
			if err != nil {
				fail(err)
			} else {
				data.SetChart(report.YieldCurveChart(c, chartCfg))
			}
		}
	}
	if data.Date == "" {
		data.Date = data.MaxDate
	}

	if notices, err := s.svc.Notices(r.Context(), s.cfg.Notices.Limit); err != nil {
		s.logError(r, err)
	} else {
		data.Notices = notices
	}

	page, err := report.ViewerPage(data)
	if err != nil {
		s.logError(r, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(page)
}
