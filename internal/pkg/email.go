package pkg

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // 发件人邮箱
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

// Notifier 审核事件通知（聊天 webhook、管理员邮箱）
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// MailNotifier 把审核通知发到管理员邮箱
type MailNotifier struct {
	cfg    SMTPConfig
	to     string
	dialer interface {
		DialAndSend(m ...*gomail.Message) error
	}
}

func NewMailNotifier(cfg SMTPConfig, to string) *MailNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &MailNotifier{cfg: cfg, to: to, dialer: d}
}

func (n *MailNotifier) Notify(_ context.Context, subject, body string) error {
	return n.dialer.DialAndSend(BuildMail(n.cfg.From, n.to, subject, body))
}

func BuildMail(from, to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", ModerationHTML(subject, body))
	return m
}

func ModerationHTML(subject, body string) string {
	return fmt.Sprintf(`<p><b>%s</b></p><p>%s</p><p>관리자 페이지에서 처리해주세요.</p>`,
		html.EscapeString(subject), html.EscapeString(body))
}

// MultiNotifier 依次通知，返回第一个错误但不中断其余通道
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, subject, body string) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, subject, body); err != nil && first == nil {
			first = err
		}
	}
	return first
}
