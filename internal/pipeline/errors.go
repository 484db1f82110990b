package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/seenimoa/jsdabond/internal/analysis/curve"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/providers/jsda"
	"github.com/seenimoa/jsdabond/internal/table"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// Messages shown to end users.
const (
	MsgNoBondNames   = "No bond names found in the data."
	MsgNoBondData    = "No data available for the selected bond."
	MsgTooFewColumns = "Downloaded CSV does not have enough columns. Data may be corrupted."
)

// UserMessage turns a pipeline error into the sentence shown to a user.
func (s *Service) UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		fe       *jsda.FetchError
		pe       *table.ParseError
		le       *LoadError
		missing  *provider.ErrMissingParam
		invalid  *provider.ErrInvalidParam
		notFound *provider.ErrProviderNotFound
	)
	switch {
	case errors.Is(err, jsda.ErrDateOutOfRange):
		return fmt.Sprintf("Please select a date between %s and %s.",
			utils.FormatDateJST(s.MinDate()), utils.FormatDateJST(s.Today()))
	case errors.As(err, &fe) && fe.StatusCode != 0:
		msg := fmt.Sprintf("No data available for the selected date. Status code: %d", fe.StatusCode)
		if fe.NoData() && errors.As(err, &le) && le.Reason != "" {
			msg += fmt.Sprintf(" (%s is a %s)", utils.FormatDateJST(le.Date), le.Reason)
		}
		return msg
	case errors.As(err, &fe):
		return fmt.Sprintf("Error downloading data: %v", fe.Err)
	case errors.Is(err, table.ErrTooFewColumns):
		return MsgTooFewColumns
	case errors.As(err, &pe):
		return fmt.Sprintf("Error parsing CSV data: %v", pe)
	case errors.Is(err, curve.ErrNoIssues):
		return MsgNoBondNames
	case errors.Is(err, curve.ErrNoBondData):
		return MsgNoBondData
	case errors.Is(err, ErrRangeTooLarge):
		return fmt.Sprintf("Please select at most %d business days.", s.opts.MaxDays)
	case errors.As(err, &missing), errors.As(err, &invalid):
		return fmt.Sprintf("Invalid input: %v", err)
	case errors.As(err, &notFound):
		return fmt.Sprintf("Service unavailable: %v", err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}

// HTTPStatus maps a pipeline error to the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		fe      *jsda.FetchError
		pe      *table.ParseError
		missing *provider.ErrMissingParam
		invalid *provider.ErrInvalidParam
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, jsda.ErrDateOutOfRange),
		errors.Is(err, ErrRangeTooLarge),
		errors.As(err, &missing),
		errors.As(err, &invalid):
		return http.StatusBadRequest
	case IsNoData(err),
		errors.Is(err, curve.ErrNoIssues),
		errors.Is(err, curve.ErrNoBondData):
		return http.StatusNotFound
	case errors.As(err, &fe), errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
