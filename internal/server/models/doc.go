// Package models defines the persisted entities of the project store and the
// key scheme that groups them.
//
// Entity groups bound the scope of a transaction: a User roots its
// UserProject links and UserFiles, a Project roots its Files, and every
// Nonce, PasswordResetToken and Record is a group of its own. Operations on
// different groups never conflict with each other.
package models
