// Package model contains the records exchanged with the booking backend and
// the few records the portal persists itself (sessions, avatars).
//
// Backend records are plain mirrors of the REST payloads; they carry no
// behavior. Identifier fields hold raw backend ids inside the portal and
// encrypted tokens once they are handed to the browser.
package model
