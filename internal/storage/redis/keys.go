package redis

import "fmt"

// Key prefix for everything this service stores
const keyPrefix = "rpsarena"

// sessionKey returns the Redis key for a session token
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// leaseKey returns the Redis key for a named lease
func leaseKey(name string) string {
	return fmt.Sprintf("%s:lease:%s", keyPrefix, name)
}
