package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"turista/internal/events"
	"turista/internal/models"
	"turista/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	// apiTimeout bounds a single Bot API round-trip.
	apiTimeout = 15 * time.Second
	// handlerTimeout bounds the work started by one event handler.
	handlerTimeout = 30 * time.Second
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends operator messages and documents to a fixed set of chats.
type Telegram struct {
	tg      telegramClient
	chatIDs []int64
	logger  *zerolog.Logger

	wg sync.WaitGroup
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatIDs []int64, logger *zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: apiTimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return NewWithTelegramClient(api, chatIDs, logger), nil
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, chatIDs []int64, logger *zerolog.Logger) *Telegram {
	return &Telegram{tg: tg, chatIDs: chatIDs, logger: logger}
}

// SendText posts text to every chat until ctx ends. Failures are joined.
func (t *Telegram) SendText(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if _, err := t.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram message failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendDocument uploads data as filename to every chat.
func (t *Telegram) SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	var errs []error
	for _, chatID := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: content})
		doc.Caption = caption
		if _, err := t.tg.Send(doc); err != nil {
			t.logger.Error().Err(err).Int64("chat_id", chatID).Str("file", filename).Msg("telegram document failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExhaustionAlert returns an event handler that tells operators a visitor was turned away.
// The message is sent in the background.
func (t *Telegram) ExhaustionAlert(ctx context.Context) events.EventHandler {
	return func(e events.Event) error {
		var payload service.ExhaustedEvent
		if err := e.Decode(&payload); err != nil {
			return err
		}
		parking := ""
		if payload.NeedsParking {
			parking = " with parking"
		}
		t.sendAsync(ctx, fmt.Sprintf("No availability: party of %d%s requested %s, nothing free in the next %d days.",
			payload.PartySize, parking, payload.RequestedDate, payload.HorizonDays))
		return nil
	}
}

// ReservationNotice returns an event handler announcing each new reservation to operators.
func (t *Telegram) ReservationNotice(ctx context.Context) events.EventHandler {
	return func(e events.Event) error {
		var r models.Reservation
		if err := e.Decode(&r); err != nil {
			return err
		}
		text := fmt.Sprintf("New reservation %s: %s, %d people on %s", r.ID, r.Name, r.PartySize, r.AssignedDate)
		if r.Moved() {
			text += fmt.Sprintf(" (moved from %s)", r.RequestedDate)
		}
		if r.NeedsParking() {
			text += fmt.Sprintf(", %s", r.VehicleKind)
			if r.Plate != "" {
				text += " " + r.Plate
			}
		}
		t.sendAsync(ctx, text+".")
		return nil
	}
}

func (t *Telegram) sendAsync(ctx context.Context, text string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
		defer cancel()
		_ = t.SendText(sendCtx, text)
	}()
}

// Wait blocks until background sends have finished.
func (t *Telegram) Wait() {
	t.wg.Wait()
}
