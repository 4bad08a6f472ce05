package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/javifm86/weather-bot/internal/domain"
	"github.com/javifm86/weather-bot/internal/subs"
	"github.com/javifm86/weather-bot/internal/trigger"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func (f *fakeBot) texts() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeBot) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeTriggers struct {
	started map[int64][2]int
	onFire  trigger.FireFunc
}

func (f *fakeTriggers) Start(chatID int64, hour, minute int, onFire trigger.FireFunc) error {
	if f.started == nil {
		f.started = make(map[int64][2]int)
	}
	if _, ok := f.started[chatID]; ok {
		return nil
	}
	f.started[chatID] = [2]int{hour, minute}
	f.onFire = onFire
	return nil
}

func (f *fakeTriggers) Stop(chatID int64) {
	delete(f.started, chatID)
}

type fakeRepo struct {
	upserts []int64
	deletes []int64
}

func (f *fakeRepo) List(context.Context) ([]domain.Subscription, error) { return nil, nil }

func (f *fakeRepo) Close() error { return nil }

func (f *fakeRepo) Upsert(_ context.Context, sub *domain.Subscription) error {
	f.upserts = append(f.upserts, sub.ChatID)
	return nil
}
func (f *fakeRepo) Delete(_ context.Context, chatID int64) error {
	f.deletes = append(f.deletes, chatID)
	return nil
}

type fakeDispatcher struct {
	checked [][2]float64
	firings int
}

func (f *fakeDispatcher) OnTrigger(int64, bool) { f.firings++ }
func (f *fakeDispatcher) CheckNow(_ int64, lat, lon float64) {
	f.checked = append(f.checked, [2]float64{lat, lon})
}

type fixture struct {
	router     *Router
	bot        *fakeBot
	store      *subs.Store
	triggers   *fakeTriggers
	repo       *fakeRepo
	dispatcher *fakeDispatcher
}

func newFixture() *fixture {
	f := &fixture{
		bot:        &fakeBot{},
		store:      subs.New(),
		triggers:   &fakeTriggers{},
		repo:       &fakeRepo{},
		dispatcher: &fakeDispatcher{},
	}
	f.router = NewRouter(f.bot, zap.NewNop(), f.store, f.triggers, f.repo, f.dispatcher)
	return f
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, FirstName: "Ana"},
		Text: text,
	}}
}

func locationUpdate(chatID int64, lat, lon float64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, FirstName: "Ana"},
		Location: &tgbotapi.Location{Latitude: lat, Longitude: lon},
	}}
}

func TestSignupScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	sub := f.store.Get(1)
	if sub == nil || sub.FieldCount() != 0 {
		t.Fatalf("want empty record after subscribe, got %+v", sub)
	}
	if f.bot.lastText() != promptHour {
		t.Fatalf("want hour prompt, got %q", f.bot.lastText())
	}

	// Out of range hour: error, re-prompt, no state change.
	f.router.HandleUpdate(ctx, textUpdate(1, "25"))
	if f.store.Get(1).FieldCount() != 0 {
		t.Fatal("invalid hour must not advance the flow")
	}
	texts := f.bot.texts()
	if texts[len(texts)-2] != hourError || texts[len(texts)-1] != promptHour {
		t.Fatalf("want error + hour re-prompt, got %v", texts[len(texts)-2:])
	}

	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	if got := domain.StepOf(f.store.Get(1)); got != domain.StepAwaitingMinute {
		t.Fatalf("after valid hour want StepAwaitingMinute, got %v", got)
	}

	f.router.HandleUpdate(ctx, textUpdate(1, "30"))
	if got := domain.StepOf(f.store.Get(1)); got != domain.StepAwaitingLocation {
		t.Fatalf("after valid minute want StepAwaitingLocation, got %v", got)
	}

	f.router.HandleUpdate(ctx, locationUpdate(1, 40.41, -3.70))
	sub = f.store.Get(1)
	if sub == nil || !sub.Complete() {
		t.Fatal("record should be complete after location")
	}
	if got := f.triggers.started[1]; got != [2]int{9, 30} {
		t.Fatalf("trigger not scheduled at 09:30: %v", got)
	}
	if len(f.repo.upserts) != 1 || f.repo.upserts[0] != 1 {
		t.Fatalf("subscription not persisted: %v", f.repo.upserts)
	}
	if f.bot.lastText() != textSubscribed {
		t.Fatalf("want confirmation, got %q", f.bot.lastText())
	}
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	f.router.HandleUpdate(ctx, textUpdate(1, "30"))
	f.router.HandleUpdate(ctx, locationUpdate(1, 40.41, -3.70))

	f.router.HandleUpdate(ctx, textUpdate(1, btnUnsubscribe))
	if f.store.Get(1) != nil {
		t.Fatal("record should be gone after unsubscribe")
	}
	if _, ok := f.triggers.started[1]; ok {
		t.Fatal("trigger should be stopped after unsubscribe")
	}
	if len(f.repo.deletes) != 1 || f.repo.deletes[0] != 1 {
		t.Fatalf("persisted row not deleted: %v", f.repo.deletes)
	}

	// Unsubscribing again is silent.
	before := len(f.bot.sent)
	f.router.HandleUpdate(ctx, textUpdate(1, btnUnsubscribe))
	if len(f.bot.sent) != before {
		t.Fatal("second unsubscribe should not reply")
	}
}

func TestLocationWhileActiveIsOneOff(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	f.router.HandleUpdate(ctx, textUpdate(1, "30"))
	f.router.HandleUpdate(ctx, locationUpdate(1, 40.41, -3.70))

	f.router.HandleUpdate(ctx, locationUpdate(1, 51.5, -0.12))
	if len(f.dispatcher.checked) != 1 {
		t.Fatalf("want on-demand check, got %v", f.dispatcher.checked)
	}
	if got := f.dispatcher.checked[0]; got != [2]float64{51.5, -0.12} {
		t.Fatalf("wrong coordinates forwarded: %v", got)
	}
	// The stored subscription must keep its original location.
	sub := f.store.Get(1)
	if *sub.Lat != 40.41 || *sub.Lon != -3.70 {
		t.Fatalf("one-off location must not edit the record: %v %v", *sub.Lat, *sub.Lon)
	}
}

func TestLocationWithoutRecordIsOneOff(t *testing.T) {
	f := newFixture()
	f.router.HandleUpdate(context.Background(), locationUpdate(5, 48.85, 2.35))
	if len(f.dispatcher.checked) != 1 {
		t.Fatal("location without a record should request the current forecast")
	}
	if f.store.Get(5) != nil {
		t.Fatal("no record should be created")
	}
}

func TestStrayLocationIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))

	// Location while still awaiting the minute: dropped.
	f.router.HandleUpdate(ctx, locationUpdate(1, 40.41, -3.70))
	if f.store.Get(1).FieldCount() != 1 {
		t.Fatal("stray location must not mutate the record")
	}
	if len(f.dispatcher.checked) != 0 {
		t.Fatal("stray location must not trigger a forecast either")
	}
}

func TestNumbersOutsideFlowIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// No record at all.
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	if f.store.Get(1) != nil {
		t.Fatal("numbers must not create records")
	}

	// Active subscription.
	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	f.router.HandleUpdate(ctx, textUpdate(1, "30"))
	f.router.HandleUpdate(ctx, locationUpdate(1, 40.41, -3.70))

	f.router.HandleUpdate(ctx, textUpdate(1, "15"))
	sub := f.store.Get(1)
	if *sub.Hour != 9 || *sub.Minute != 30 {
		t.Fatal("numbers while active must not edit the schedule")
	}
}

func TestSubscribeTwiceIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))

	if f.store.Get(1).FieldCount() != 1 {
		t.Fatal("second subscribe must not reset the record")
	}
}

func TestStatusOnlyForCompleteRecords(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.HandleUpdate(ctx, textUpdate(1, btnStatus))
	if len(f.bot.sent) != 0 {
		t.Fatal("status without a subscription should be silent")
	}

	f.router.HandleUpdate(ctx, textUpdate(1, btnSubscribe))
	f.router.HandleUpdate(ctx, textUpdate(1, "9"))
	f.router.HandleUpdate(ctx, textUpdate(1, "30"))
	f.router.HandleUpdate(ctx, locationUpdate(1, 40.41, -3.70))
	f.bot.sent = nil

	f.router.HandleUpdate(ctx, textUpdate(1, btnStatus))
	if !strings.Contains(f.bot.texts()[0], "09:30") {
		t.Fatalf("status should show the zero-padded schedule: %q", f.bot.texts()[0])
	}
	// The stored location follows as a separate location message.
	if _, ok := f.bot.sent[len(f.bot.sent)-1].(tgbotapi.LocationConfig); !ok {
		t.Fatalf("want trailing location message, got %T", f.bot.sent[len(f.bot.sent)-1])
	}
}

func TestMessagesWithoutSenderIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Channel-style messages carry no From; they must be dropped, not panic.
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 9},
		Text: "/start",
	}}
	f.router.HandleUpdate(ctx, upd)

	upd.Message.Text = btnSubscribe
	f.router.HandleUpdate(ctx, upd)

	if len(f.bot.sent) != 0 {
		t.Fatal("messages without a sender should get no reply")
	}
	if f.store.Get(9) != nil {
		t.Fatal("messages without a sender must not create records")
	}
}

func TestSendForecastClassifiesClientErrors(t *testing.T) {
	bot := &fakeBot{}
	notifier := NewNotifier(bot, subs.New())

	bot.err = &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	err := notifier.SendForecast(1, "msg")
	if !errors.Is(err, domain.ErrUnreachable) {
		t.Fatalf("403 should map to ErrUnreachable, got %v", err)
	}

	bot.err = &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}
	err = notifier.SendForecast(1, "msg")
	if errors.Is(err, domain.ErrUnreachable) {
		t.Fatal("5xx must stay transient")
	}

	bot.err = nil
	if err := notifier.SendForecast(1, "msg"); err != nil {
		t.Fatalf("clean send: %v", err)
	}
}
