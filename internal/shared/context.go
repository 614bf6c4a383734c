package shared

import "context"

// SessionActorKey stores the admin's activity-log actor id in the session.
const SessionActorKey = "actor_id"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ActorFromContext returns the actor id of the signed-in admin, or "".
func ActorFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if !sess.Authenticated() {
		return ""
	}
	if actor := sess.Get(SessionActorKey); actor != "" {
		return actor
	}
	return sess.User()
}
