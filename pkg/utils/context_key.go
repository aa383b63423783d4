package utils

// ContextKey keys values stored on request contexts (userId, username,
// role) so they cannot collide with other packages' keys.
type ContextKey string
