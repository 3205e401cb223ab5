// Package mailer は注文確認メールのSMTP送信。
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) SendOrderPaid(ctx context.Context, to string, orderID int64, total int64) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("ご注文ありがとうございます（注文番号 %d）", orderID))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"注文番号 %d のお支払い（%d円）を確認しました。\n発送準備が整い次第お知らせします。\n", orderID, total))

	return m.client.DialAndSendWithContext(ctx, msg)
}
