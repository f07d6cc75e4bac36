// Package iocli reads operator input for the server's interactive commands.
package iocli

//go:generate moq -out io_mock.go . IO

// IO запрашивает ввод у оператора
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}
