package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	seederrors "github.com/YuminosukeSato/seedtune/pkg/errors"
)

// ErrFmtHandler is a slog handler that enriches records carrying an error
// attribute with the error kind and the cockroachdb/errors stack trace.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps a slog handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		err, _ = attr.Value.Any().(error)
		return false
	})
	if err != nil {
		if kind := errorKind(err); kind != "" {
			r.AddAttrs(slog.String(ErrorTypeKey, kind))
		}
		if st := extractStacktrace(err); st != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, st))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// errorKind names the seedtune error type found in err's chain. Cancellation
// wins over the fold failure wrapping it.
func errorKind(err error) string {
	var (
		fitErr   *seederrors.FitError
		dataErr  *seederrors.DataError
		valErr   *seederrors.ValidationError
		dimErr   *seederrors.DimensionError
		numErr   *seederrors.NumericalInstabilityError
		panicErr *seederrors.PanicError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &panicErr):
		return "panic"
	case errors.As(err, &fitErr):
		return "fit"
	case errors.As(err, &dataErr):
		return "data"
	case errors.As(err, &valErr):
		return "validation"
	case errors.As(err, &dimErr):
		return "dimension"
	case errors.As(err, &numErr):
		return "numerical"
	}
	return ""
}

// extractStacktrace returns the first safe detail recorded by errors.WithStack.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
