package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/chat"
	"github.com/pressdeck/editorial-chat/internal/config"
	"github.com/pressdeck/editorial-chat/internal/db"
	"github.com/pressdeck/editorial-chat/internal/email"
	"github.com/pressdeck/editorial-chat/internal/identity"
	"github.com/pressdeck/editorial-chat/internal/notify"
	"github.com/pressdeck/editorial-chat/internal/store/rabbitmq"
	"github.com/pressdeck/editorial-chat/internal/store/redisstore"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

type deps struct {
	cfg       config.Config
	notifRepo *notify.Repo
	chatRepo  *chat.Repo
	users     *identity.Repo
	unread    *redisstore.Store
	mailer    *email.Sender
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	d := &deps{
		cfg:       cfg,
		notifRepo: notify.NewRepo(gdb),
		chatRepo:  chat.NewRepo(gdb),
		users:     identity.NewRepo(gdb),
		unread:    redisstore.New(rdb),
	}
	if cfg.EmailNotify {
		d.mailer = email.NewSender(email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("queue declare")
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for delivery := range jobs {
				var m rabbitmq.NotificationMessage
				if err := json.Unmarshal(delivery.Body, &m); err != nil || m.NotificationID == "" {
					log.Warn().Int("worker", workerID).Err(err).Msg("bad message")
					_ = delivery.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleNotification(ctx, d, m.NotificationID); err != nil {
					log.Warn().Int("worker", workerID).
						Str("notification_id", m.NotificationID).
						Dur("cost", time.Since(start)).
						Err(err).Msg("notification failed")
					_ = delivery.Nack(false, false)
					continue
				}

				if err := delivery.Ack(false); err != nil {
					log.Warn().Int("worker", workerID).
						Str("notification_id", m.NotificationID).
						Err(err).Msg("ack failed")
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case delivery, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- delivery
		}
	}
}

// handleNotification fans one inserted message out to every elevated user
// except the sender: unread counters always, email only when enabled.
func handleNotification(ctx context.Context, d *deps, notificationID string) error {
	_ = d.notifRepo.MarkRunning(ctx, notificationID)

	n, err := d.notifRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}

	msg, err := d.chatRepo.GetMessageByID(ctx, n.MessageID)
	if err != nil {
		_ = d.notifRepo.MarkFailed(ctx, notificationID, err.Error())
		return err
	}
	conv, err := d.chatRepo.GetConversationByID(ctx, n.ConversationID)
	if err != nil {
		_ = d.notifRepo.MarkFailed(ctx, notificationID, err.Error())
		return err
	}

	recipients, err := d.users.ListByRoles(ctx, []string{identity.RoleAdmin, identity.RoleEditor})
	if err != nil {
		_ = d.notifRepo.MarkFailed(ctx, notificationID, err.Error())
		return err
	}

	for _, u := range recipients {
		if u.ID == n.SenderID {
			continue
		}
		if err := d.unread.IncrUnread(ctx, u.ID, n.ConversationID); err != nil {
			log.Warn().Err(err).Uint64("user_id", u.ID).Msg("unread increment failed")
		}
		if d.mailer != nil {
			subject := fmt.Sprintf("New message in %s", conv.Title)
			body := fmt.Sprintf("%s wrote:\n\n%s\n", msg.Sender.Email, msg.Body)
			if err := d.mailer.Send(u.Email, subject, body); err != nil {
				log.Warn().Err(err).Str("to", u.Email).Msg("notification mail failed")
			}
		}
	}

	if err := d.notifRepo.MarkSucceeded(ctx, notificationID); err != nil {
		return err
	}
	return nil
}
