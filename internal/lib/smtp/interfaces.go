// Package smtp отправляет письма спортсменам через SMTP-сервер клуба.
package smtp

import "io"

// Client — подмножество *smtp.Client, нужное для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает готовую к отправке SMTP-сессию.
type Dialer interface {
	Connect() (Client, error)
}
