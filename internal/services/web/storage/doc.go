// Package storage declares persistence for desk sign-in sessions.
//
// A session record is the server-side half of the desk_session cookie; the
// GoTrue backend stays the source of truth for the user itself.
package storage
