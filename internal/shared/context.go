package shared

import "context"

const (
	CorrelationHeader = "X-Correlation-Id"
	RequestIDHeader   = "X-Request-Id"

	// keys trong gin.Context
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	ClaimsKey        = "claims"
)

type correlationKey struct{}

// WithCorrelationID gắn correlation id vào context để forward sang service khác
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
