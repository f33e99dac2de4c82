// Package console is an interactive administration shell over the project
// store. It opens the same repositories and blob stores as the server and
// calls the storage engine directly.
//
// Commands take positional arguments, for example
//
//	st> put u1 42 src/Screen1.bky ./Screen1.bky
//
// Passwords are read from the terminal without echo.
package console
