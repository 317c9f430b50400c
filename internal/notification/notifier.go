// Package notification fans alerts out to the configured channels. Delivery
// is best effort and asynchronous: the monitoring loop enqueues and moves on.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"growthai-backend/internal/model"
)

// Sender is the interface for delivering a single web push message.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender delivers through the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// TelegramConfig configures the Telegram bot channel.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	Endpoint string `yaml:"endpoint"` // override for tests
}

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// Config for the notifier worker pool and its channels.
type Config struct {
	Workers   int            `yaml:"workers"`
	QueueSize int            `yaml:"queue_size"`
	Telegram  TelegramConfig `yaml:"telegram"`
	Email     EmailConfig    `yaml:"email"`
}

// Job is one alert to deliver, with the decision that followed it when the
// alert was critical.
type Job struct {
	Alert    model.AlertRecord
	Decision *model.Decision
}

// Notifier manages a pool of workers delivering notification jobs.
type Notifier struct {
	cfg     Config
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	http    *http.Client
}

// New creates a notifier. db and webpushOptions may be nil, which disables
// the web push channel.
func New(cfg Config, db *gorm.DB, webpushOptions *webpush.Options) *Notifier {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Notifier{
		cfg:     cfg,
		jobs:    make(chan Job, cfg.QueueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetSender swaps the web push sender, for tests.
func (n *Notifier) SetSender(s Sender) { n.sender = s }

// Start launches the worker goroutines.
func (n *Notifier) Start(ctx context.Context) {
	for i := 0; i < n.cfg.Workers; i++ {
		go n.worker(ctx, i)
	}
}

func (n *Notifier) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case job := <-n.jobs:
			n.deliver(ctx, job)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch enqueues a job without blocking. When the queue is full the job is
// dropped; alert delivery must never stall the monitoring loop.
func (n *Notifier) Dispatch(job Job) {
	select {
	case n.jobs <- job:
	default:
		log.Printf("notification queue full, dropping %s alert for %s/%s",
			job.Alert.Severity, job.Alert.GardenID, job.Alert.PlantID)
	}
}

// Jobs returns the jobs channel for testing.
func (n *Notifier) Jobs() chan Job { return n.jobs }

func (n *Notifier) deliver(ctx context.Context, job Job) {
	a := job.Alert
	log.Printf("ALERT [%s] %s", strings.ToUpper(a.Severity), a.Message)

	critical := a.Severity == model.SeverityCritical
	if critical || n.decisionPriorityHigh(job.Decision) {
		n.sendTelegram(ctx, job)
	}
	if critical {
		n.sendEmail(job)
		n.sendWebPush(ctx, job)
	}
}

func (n *Notifier) decisionPriorityHigh(d *model.Decision) bool {
	if d == nil {
		return false
	}
	return d.Priority == model.PriorityHigh || d.Priority == model.PriorityCritical
}

func (n *Notifier) message(job Job) string {
	var b strings.Builder
	b.WriteString(job.Alert.Message)
	if job.Decision != nil && job.Decision.Explanation != "" {
		b.WriteString("\nDecision: ")
		b.WriteString(job.Decision.Decision)
		b.WriteString(" - ")
		b.WriteString(job.Decision.Explanation)
	}
	return b.String()
}

func (n *Notifier) sendTelegram(ctx context.Context, job Job) {
	cfg := n.cfg.Telegram
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.telegram.org"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", endpoint, cfg.BotToken)
	body, _ := json.Marshal(map[string]string{
		"chat_id": cfg.ChatID,
		"text":    n.message(job),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("telegram request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.http.Do(req)
	if err != nil {
		log.Printf("telegram send: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("telegram send returned %d", resp.StatusCode)
	}
}

func (n *Notifier) sendEmail(job Job) {
	cfg := n.cfg.Email
	if cfg.Host == "" || len(cfg.To) == 0 {
		return
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: [%s] garden alert\r\n\r\n%s\r\n",
		cfg.From, strings.Join(cfg.To, ", "), job.Alert.Severity, n.message(job))
	if err := smtp.SendMail(addr, auth, cfg.From, cfg.To, []byte(msg)); err != nil {
		log.Printf("email send: %v", err)
	}
}

func (n *Notifier) sendWebPush(ctx context.Context, job Job) {
	if n.db == nil || n.webpush == nil {
		return
	}
	var subscriptions []model.PushSubscription
	if err := n.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("error fetching push subscriptions: %v", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"title":    fmt.Sprintf("Garden alert: %s", job.Alert.GardenName),
		"body":     n.message(job),
		"severity": job.Alert.Severity,
	})
	log.Printf("sending %d push notifications for %s/%s", len(subscriptions), job.Alert.GardenID, job.Alert.PlantID)
	for _, sub := range subscriptions {
		n.sendOnePush(ctx, sub, payload)
	}
}

func (n *Notifier) sendOnePush(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}
	resp, err := n.sender.Send(payload, wpSub, n.webpush)
	if err != nil {
		log.Printf("error sending push to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are pruned on the spot.
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s expired, deleting", sub.Endpoint)
		if err := n.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
