package cerr

import (
	"context"
	"encoding/json"
	"net/http"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	response any
	err      error
	detached bool
}

func contextWithResponseReceiver(ctx context.Context, err *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, err)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	if err, ok := ctx.Value(responseReceiverKey{}).(*responseReceiver); ok {
		return err
	}
	return nil
}

func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// Detach tells the middleware that the handler wrote its own response
// (e.g. an event stream) and nothing should be appended.
func Detach(ctx context.Context) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.detached = true
	}
}

// NewJSONResponseChiMiddleware lets handlers report a value or an error via
// SetJSONResponse / SetJSONError and renders it once the handler returns.
func NewJSONResponseChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			if rr.detached {
				return
			}
			ExtractToHTTPResponse(ctx, rw, rr)
		})
	}
}

// DecodeJSONRequest decodes the request body into v, reporting malformed
// input as InvalidArgument.
func DecodeJSONRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return NewError(InvalidArgument, "invalid request body", err).AddDetailMessage(err.Error())
	}
	return nil
}
