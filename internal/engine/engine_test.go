package engine

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/klava/internal/generator"
	"github.com/verte-zerg/klava/internal/model"
)

type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func newTestEngine(t *testing.T, words []string, mode model.Mode, goal int) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: 200 * time.Millisecond}
	e, err := New(generator.NewWithSeed(7), words, mode, goal, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e, clock
}

// loadText replaces the generated sequence with a fixed one.
func loadText(e *Engine, words ...string) {
	target := generator.Build(words)
	e.chars = target.Chars
	e.target = target.Words
	e.goal = target.Words
}

func typeString(e *Engine, s string) {
	for _, r := range s {
		e.OnKey(RuneKey(r))
	}
}

func sequence(v View) string {
	var b strings.Builder
	for _, c := range v.Chars {
		b.WriteRune(c.Value)
	}
	return b.String()
}

func TestExactTypingFinishesWordSession(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 2)
	loadText(e, "кот", "ОК")
	if got := sequence(e.View()); got != "кот ок" {
		t.Fatalf("unexpected target %q", got)
	}

	typeString(e, "кот ок")

	v := e.View()
	if v.Active || !v.Finished {
		t.Fatalf("expected session to be finished")
	}
	if v.Cursor != len(v.Chars) {
		t.Fatalf("expected cursor at end, got %d of %d", v.Cursor, len(v.Chars))
	}
	if v.CompletedWords != 2 {
		t.Fatalf("expected 2 completed words, got %d", v.CompletedWords)
	}
	if v.Result.Accuracy != 100 {
		t.Fatalf("expected accuracy 100, got %d", v.Result.Accuracy)
	}
	if v.Result.WPM <= 0 {
		t.Fatalf("expected positive wpm, got %d", v.Result.WPM)
	}
}

func TestUppercaseInputMatches(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 1)
	typeString(e, "КоТ")
	v := e.View()
	if !v.Finished || v.Result.Accuracy != 100 || v.Mistakes != 0 {
		t.Fatalf("expected case-insensitive match, got %+v", v)
	}
}

func TestExtraCharacterAtSeparator(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 2)
	loadText(e, "кот", "ок")
	typeString(e, "кот")
	before := e.View()

	e.OnKey(RuneKey('ы'))

	v := e.View()
	if len(v.Chars) != len(before.Chars)+1 {
		t.Fatalf("expected one inserted char, got %d -> %d", len(before.Chars), len(v.Chars))
	}
	extra := v.Chars[3]
	if !extra.Extra || extra.Status != model.StatusIncorrect || extra.Value != 'ы' {
		t.Fatalf("unexpected extra char %+v", extra)
	}
	sep := v.Chars[4]
	if !sep.IsSeparator() || sep.Status != model.StatusPending {
		t.Fatalf("expected pending separator after extra, got %+v", sep)
	}
	if v.Cursor != 4 {
		t.Fatalf("expected cursor 4, got %d", v.Cursor)
	}
	if v.TotalTyped != before.TotalTyped+1 || v.Mistakes != before.Mistakes+1 {
		t.Fatalf("expected totals +1, got typed %d mistakes %d", v.TotalTyped, v.Mistakes)
	}
	if v.CompletedWords != 0 {
		t.Fatalf("extra must not complete a word")
	}
}

func TestBackspaceRemovesExtra(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 2)
	loadText(e, "кот", "ок")
	typeString(e, "котыы")
	v := e.View()
	if len(v.Chars) != 8 || v.Cursor != 5 {
		t.Fatalf("expected two extras, got len %d cursor %d", len(v.Chars), v.Cursor)
	}

	e.OnKey(Key{Kind: KeyBackspace})
	e.OnKey(Key{Kind: KeyBackspace})

	after := e.View()
	if sequence(after) != "кот ок" || after.Cursor != 3 {
		t.Fatalf("expected extras removed, got %q cursor %d", sequence(after), after.Cursor)
	}
	if after.Mistakes != 2 || after.TotalTyped != 5 {
		t.Fatalf("backspace must not roll back stats, got mistakes %d typed %d", after.Mistakes, after.TotalTyped)
	}
	for _, c := range after.Chars {
		if c.Extra {
			t.Fatalf("unexpected leftover extra")
		}
	}
}

func TestBackspaceOverCorrectSeparator(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 3)
	loadText(e, "кот", "ок", "да")
	typeString(e, "кот ")
	if got := e.View().CompletedWords; got != 1 {
		t.Fatalf("expected 1 completed word, got %d", got)
	}

	e.OnKey(Key{Kind: KeyBackspace})

	v := e.View()
	if v.CompletedWords != 0 {
		t.Fatalf("expected completed words to drop to 0, got %d", v.CompletedWords)
	}
	if v.Chars[3].Status != model.StatusPending || v.Cursor != 3 {
		t.Fatalf("expected separator cleared, got %+v at cursor %d", v.Chars[3], v.Cursor)
	}
	if v.TotalTyped != 4 {
		t.Fatalf("expected typed count to stay 4, got %d", v.TotalTyped)
	}
}

func TestBackspaceClearsIncorrect(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 1)
	typeString(e, "ка")
	if e.View().Chars[1].Status != model.StatusIncorrect {
		t.Fatalf("expected incorrect mark")
	}
	e.OnKey(Key{Kind: KeyBackspace})
	v := e.View()
	if v.Chars[1].Status != model.StatusPending || v.Mistakes != 1 {
		t.Fatalf("expected pending char and unchanged mistakes, got %+v mistakes %d", v.Chars[1], v.Mistakes)
	}
}

func TestBackspaceAtStartIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 1)
	tr := e.OnKey(Key{Kind: KeyBackspace})
	if tr.Changed {
		t.Fatalf("expected no change")
	}
	v := e.View()
	if v.Cursor != 0 || v.Started {
		t.Fatalf("backspace must not start the session")
	}
}

func TestIgnoredKeys(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeTime, 15)
	for _, k := range []Key{{Kind: KeyOther}, {Kind: KeyRune, Rune: '\x1b'}, {Kind: KeyRune, Rune: '\t'}} {
		if tr := e.OnKey(k); tr.Changed {
			t.Fatalf("expected %+v to be ignored", k)
		}
	}
	v := e.View()
	if v.Started || v.TotalTyped != 0 {
		t.Fatalf("ignored keys must not start the session")
	}
}

func TestInactiveSessionIgnoresInput(t *testing.T) {
	e, _ := newTestEngine(t, []string{"да"}, model.ModeWords, 1)
	typeString(e, "да")
	if !e.View().Finished {
		t.Fatalf("expected finished session")
	}
	before := e.View()
	if tr := e.OnKey(RuneKey('д')); tr.Changed {
		t.Fatalf("expected key to be ignored after finish")
	}
	if tr := e.OnKey(Key{Kind: KeyBackspace}); tr.Changed {
		t.Fatalf("expected backspace to be ignored after finish")
	}
	after := e.View()
	if after.Cursor != before.Cursor || after.TotalTyped != before.TotalTyped {
		t.Fatalf("inactive session changed")
	}
}

func TestRestartRegenerates(t *testing.T) {
	cases := []struct {
		mode      model.Mode
		goal      int
		wantWords int
	}{
		{model.ModeWords, 10, 10},
		{model.ModeWords, 25, 25},
		{model.ModeTime, 30, generator.TimePoolWords},
	}
	for _, tc := range cases {
		e, _ := newTestEngine(t, []string{"ab"}, tc.mode, tc.goal)
		typeString(e, "ax ")
		tr := e.OnKey(Key{Kind: KeyRestart})
		if !tr.Reset {
			t.Fatalf("expected reset transition")
		}
		v := e.View()
		if v.Cursor != 0 || v.Mistakes != 0 || v.TotalTyped != 0 || v.CompletedWords != 0 {
			t.Fatalf("expected cleared counters, got %+v", v)
		}
		if v.Started || !v.Active || v.Finished {
			t.Fatalf("expected fresh active session")
		}
		wantLen := tc.wantWords*2 + tc.wantWords - 1
		if len(v.Chars) != wantLen {
			t.Fatalf("expected %d chars, got %d", wantLen, len(v.Chars))
		}
		if v.WordGoal != tc.wantWords {
			t.Fatalf("expected word goal %d, got %d", tc.wantWords, v.WordGoal)
		}
	}
}

func TestRestartAfterFinish(t *testing.T) {
	e, _ := newTestEngine(t, []string{"да"}, model.ModeWords, 1)
	typeString(e, "да")
	e.OnKey(Key{Kind: KeyRestart})
	v := e.View()
	if !v.Active || v.Finished || v.Result.WPM != 0 {
		t.Fatalf("expected restart to discard finished session, got %+v", v)
	}
}

func TestResetFailureKeepsSession(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 2)
	typeString(e, "ко")
	before := e.View()
	if err := e.Reset(model.ModeWords, 0); err == nil {
		t.Fatalf("expected error for zero goal")
	}
	after := e.View()
	if after.Cursor != before.Cursor || sequence(after) != sequence(before) || after.Goal != 2 {
		t.Fatalf("failed reset changed the session")
	}
}

func TestNewEmptyVocabulary(t *testing.T) {
	if _, err := New(generator.NewWithSeed(1), nil, model.ModeWords, 10); err == nil {
		t.Fatalf("expected error for empty vocabulary")
	}
}

func TestTimeModeCountdown(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeTime, 3)
	v := e.View()
	if v.Remaining != 3 || v.Started {
		t.Fatalf("expected armed countdown of 3, got %+v", v)
	}
	staleEpoch := v.TimerEpoch
	if tr := e.OnTick(staleEpoch); tr.Changed {
		t.Fatalf("tick before start must be ignored")
	}

	tr := e.OnKey(RuneKey('к'))
	if !tr.Started {
		t.Fatalf("expected first key to start the session")
	}
	epoch := e.View().TimerEpoch
	if epoch == staleEpoch {
		t.Fatalf("expected a new timer epoch after start")
	}
	if tr := e.OnTick(staleEpoch); tr.Changed {
		t.Fatalf("stale tick must be ignored")
	}

	e.OnTick(epoch)
	e.OnTick(epoch)
	if e.View().Remaining != 1 || !e.View().Active {
		t.Fatalf("expected one second left")
	}
	typeString(e, "от")
	tr = e.OnTick(epoch)
	if !tr.Finished {
		t.Fatalf("expected expiry to finish the session")
	}
	v = e.View()
	if v.Active || !v.Finished || v.Remaining != 0 {
		t.Fatalf("expected finished time session, got %+v", v)
	}
	if v.Result.Accuracy != 100 || v.Result.CorrectChars != 3 {
		t.Fatalf("unexpected result %+v", v.Result)
	}
}

func TestRestartCancelsTimer(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeTime, 2)
	e.OnKey(RuneKey('к'))
	oldEpoch := e.View().TimerEpoch
	e.OnKey(Key{Kind: KeyRestart})
	if tr := e.OnTick(oldEpoch); tr.Changed {
		t.Fatalf("tick of cancelled timer must be ignored")
	}
	e.OnKey(RuneKey('к'))
	newEpoch := e.View().TimerEpoch
	e.OnTick(oldEpoch)
	e.OnTick(newEpoch)
	if !e.View().Active || e.View().Remaining != 1 {
		t.Fatalf("only the new timer may tick, got %+v", e.View())
	}
}

func TestSwitchToWordModeClearsCountdown(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeTime, 30)
	e.OnKey(RuneKey('к'))
	epoch := e.View().TimerEpoch
	e.OnTick(epoch)
	if v := e.View(); v.Remaining != 29 || !v.TimerRunning {
		t.Fatalf("expected running countdown at 29, got %+v", v)
	}
	if err := e.Reset(model.ModeWords, 10); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	v := e.View()
	if v.Remaining != 0 || v.TimerRunning {
		t.Fatalf("word session must not show a countdown, got remaining=%d running=%v", v.Remaining, v.TimerRunning)
	}
	if tr := e.OnTick(epoch); tr.Changed {
		t.Fatalf("tick of the old countdown must be ignored")
	}
	e.OnKey(RuneKey(v.Chars[0].Value))
	if e.View().TimerRunning {
		t.Fatalf("word session must not start a countdown")
	}
}

func TestElapsedFreezesOnFinish(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 1)
	loadText(e, "да")
	if e.Elapsed() != 0 {
		t.Fatalf("expected zero elapsed before the first key")
	}
	e.OnKey(RuneKey('д'))
	if e.Elapsed() <= 0 {
		t.Fatalf("expected elapsed time while typing")
	}
	e.OnKey(RuneKey('а'))
	if !e.View().Finished {
		t.Fatalf("expected finished session")
	}
	first := e.Elapsed()
	if first <= 0 || e.Elapsed() != first {
		t.Fatalf("expected frozen elapsed after finish, got %v then %v", first, e.Elapsed())
	}
}

func TestFinishWithoutKeystrokes(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeTime, 15)
	res := e.Finish()
	if res.Accuracy != 0 || res.WPM != 0 {
		t.Fatalf("expected zero result, got %+v", res)
	}
	if e.View().Active {
		t.Fatalf("expected inactive session after finish")
	}
	if _, _, ok := e.Record("ru"); ok {
		t.Fatalf("untouched session must not produce a record")
	}
}

func TestTimePoolExhaustionIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeTime, 60)
	loadText(e, "да")
	e.goal = 60
	typeString(e, "да")
	v := e.View()
	if !v.Active || v.Cursor != 2 {
		t.Fatalf("time session must keep running at the end of the pool")
	}
	if tr := e.OnKey(RuneKey('х')); tr.Changed {
		t.Fatalf("typing past the end must be a no-op")
	}
	if e.View().TotalTyped != 2 {
		t.Fatalf("typing past the end must not count")
	}
}

func TestRecordCharStats(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 2)
	loadText(e, "кот", "ок")
	typeString(e, "кат ок")
	session, chars, ok := e.Record("ru")
	if !ok {
		t.Fatalf("expected record for finished session")
	}
	if session.Lang != "ru" || session.Mode != model.ModeWords || session.Mistakes != 1 || session.TotalTyped != 6 {
		t.Fatalf("unexpected session record %+v", session)
	}
	if session.DurationMs <= 0 {
		t.Fatalf("expected positive duration")
	}
	byChar := map[string]model.CharStats{}
	for _, c := range chars {
		byChar[c.Char] = c
	}
	if _, ok := byChar[" "]; ok {
		t.Fatalf("separator must not be tracked")
	}
	if got := byChar["о"]; got.Correct != 1 || got.Incorrect != 1 {
		t.Fatalf("unexpected stats for о: %+v", got)
	}
	if got := byChar["к"]; got.Correct != 2 || got.LatencyCount != 1 {
		t.Fatalf("unexpected stats for к: %+v", got)
	}
}

func checkInvariants(t *testing.T, v View, step int) {
	t.Helper()
	if v.Mistakes > v.TotalTyped {
		t.Fatalf("step %d: mistakes %d > typed %d", step, v.Mistakes, v.TotalTyped)
	}
	if v.Cursor < 0 || v.Cursor > len(v.Chars) {
		t.Fatalf("step %d: cursor %d out of range", step, v.Cursor)
	}
	correctSeparators := 0
	for i, c := range v.Chars {
		if c.Extra {
			if c.Status != model.StatusIncorrect {
				t.Fatalf("step %d: extra not incorrect", step)
			}
			next := i + 1
			for next < len(v.Chars) && v.Chars[next].Extra {
				next++
			}
			if next >= len(v.Chars) || !v.Chars[next].IsSeparator() {
				t.Fatalf("step %d: extra at %d not followed by a separator", step, i)
			}
		}
		if c.IsSeparator() && c.Status == model.StatusCorrect {
			correctSeparators++
		}
		if c.IsSeparator() && c.Status == model.StatusIncorrect {
			t.Fatalf("step %d: separator marked incorrect", step)
		}
	}
	if v.Active && v.Mode == model.ModeWords && v.CompletedWords != correctSeparators {
		t.Fatalf("step %d: completed %d != correct separators %d", step, v.CompletedWords, correctSeparators)
	}
}

func TestRandomKeystrokesKeepInvariants(t *testing.T) {
	keys := []Key{
		RuneKey('к'), RuneKey('о'), RuneKey('т'), RuneKey('а'), RuneKey(' '),
		{Kind: KeyBackspace}, {Kind: KeyBackspace}, {Kind: KeyOther},
	}
	for seed := int64(0); seed < 20; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		e, _ := newTestEngine(t, []string{"кот", "ток"}, model.ModeWords, 5)
		for step := 0; step < 400 && e.View().Active; step++ {
			k := keys[rnd.Intn(len(keys))]
			before := e.View()
			e.OnKey(k)
			after := e.View()
			checkInvariants(t, after, step)
			if k.Kind == KeyBackspace && before.Cursor > 0 {
				if after.Cursor != before.Cursor-1 {
					t.Fatalf("step %d: backspace moved cursor %d -> %d", step, before.Cursor, after.Cursor)
				}
				if after.Mistakes != before.Mistakes || after.TotalTyped != before.TotalTyped {
					t.Fatalf("step %d: backspace changed counters", step)
				}
			}
		}
		if e.View().Finished {
			v := e.View()
			if v.Cursor != len(v.Chars) || v.CompletedWords != 5 {
				t.Fatalf("seed %d: unexpected finished state cursor %d/%d words %d", seed, v.Cursor, len(v.Chars), v.CompletedWords)
			}
		}
	}
}

func TestBackspaceInvertsAdvance(t *testing.T) {
	e, _ := newTestEngine(t, []string{"кот"}, model.ModeWords, 3)
	loadText(e, "кот", "ок", "да")
	for _, r := range "кот" + "ж" + " ох" {
		before := e.View()
		e.OnKey(RuneKey(r))
		e.OnKey(Key{Kind: KeyBackspace})
		after := e.View()
		if after.Cursor != before.Cursor || len(after.Chars) != len(before.Chars) {
			t.Fatalf("backspace after %q did not restore position", r)
		}
		if before.Cursor < len(before.Chars) && after.Chars[after.Cursor].Status != model.StatusPending {
			t.Fatalf("backspace after %q left a mark", r)
		}
		e.OnKey(RuneKey(r))
	}
}
