package localdb

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nantokaworks/safari-raffle/internal/types"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if _, err := SetupDB(dbPath); err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(CloseDB)
}

func TestAddParticipantValidation(t *testing.T) {
	setupTestDB(t)

	if _, err := AddParticipant("", 3, "🦁", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := AddParticipant("   ", 3, "🦁", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("whitespace name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := AddParticipant("Alice", 0, "🦁", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero tickets: expected ErrInvalidInput, got %v", err)
	}
}

func TestAddAndGetParticipant(t *testing.T) {
	setupTestDB(t)

	p, err := AddParticipant("Alice", 3, "🦁", "/api/uploads/participants/a.jpg")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected a non-zero id")
	}
	if p.Name != "Alice" || p.Tickets != 3 || p.Animal != "🦁" {
		t.Errorf("unexpected participant: %+v", p)
	}
	if len(p.Prizes) != 0 {
		t.Errorf("new participant should have no prizes, got %v", p.Prizes)
	}

	got, err := GetParticipant(p.ID)
	if err != nil {
		t.Fatalf("GetParticipant failed: %v", err)
	}
	if got.PhotoPath != "/api/uploads/participants/a.jpg" {
		t.Errorf("unexpected photo path: %s", got.PhotoPath)
	}
}

func TestGetParticipantNotFound(t *testing.T) {
	setupTestDB(t)

	if _, err := GetParticipant(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateParticipantPartial(t *testing.T) {
	setupTestDB(t)

	p, err := AddParticipant("Alice", 3, "🦁", "")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}

	// チケットだけ更新。名前は変わらないこと。
	tickets := 5
	updated, err := UpdateParticipant(p.ID, ParticipantUpdate{Tickets: &tickets})
	if err != nil {
		t.Fatalf("UpdateParticipant failed: %v", err)
	}
	if updated.Name != "Alice" {
		t.Errorf("name changed unexpectedly: %s", updated.Name)
	}
	if updated.Tickets != 5 {
		t.Errorf("tickets = %d, want 5", updated.Tickets)
	}

	name := "Alicia"
	updated, err = UpdateParticipant(p.ID, ParticipantUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateParticipant failed: %v", err)
	}
	if updated.Name != "Alicia" || updated.Tickets != 5 {
		t.Errorf("unexpected participant after name update: %+v", updated)
	}
}

func TestUpdateParticipantValidation(t *testing.T) {
	setupTestDB(t)

	p, err := AddParticipant("Alice", 3, "🦁", "")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}

	empty := ""
	if _, err := UpdateParticipant(p.ID, ParticipantUpdate{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name: expected ErrInvalidInput, got %v", err)
	}

	zero := 0
	if _, err := UpdateParticipant(p.ID, ParticipantUpdate{Tickets: &zero}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero tickets: expected ErrInvalidInput, got %v", err)
	}

	name := "Bob"
	if _, err := UpdateParticipant(999, ParticipantUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing participant: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateParticipantTicketsBelowAwards(t *testing.T) {
	setupTestDB(t)

	p, err := AddParticipant("Alice", 3, "🦁", "")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	prize, err := AddPrize("Mug", "", "", 5)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := AwardPrize(p.ID, prize.ID); err != nil {
			t.Fatalf("AwardPrize failed: %v", err)
		}
	}

	one := 1
	if _, err := UpdateParticipant(p.ID, ParticipantUpdate{Tickets: &one}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}

	// ちょうど当選数までは下げられる
	two := 2
	if _, err := UpdateParticipant(p.ID, ParticipantUpdate{Tickets: &two}); err != nil {
		t.Errorf("reducing to awarded count should succeed, got %v", err)
	}
}

func TestDeleteParticipantCascades(t *testing.T) {
	setupTestDB(t)

	p, err := AddParticipant("Alice", 2, "🦁", "/api/uploads/participants/pic.jpg")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	prize, err := AddPrize("Mug", "", "", 3)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}
	if err := AwardPrize(p.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	photoPath, err := DeleteParticipant(p.ID)
	if err != nil {
		t.Fatalf("DeleteParticipant failed: %v", err)
	}
	if photoPath != "/api/uploads/participants/pic.jpg" {
		t.Errorf("unexpected photo path: %s", photoPath)
	}

	if _, err := GetParticipant(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// 当選履歴も消えるので賞品の残数が戻る
	got, err := GetPrize(prize.ID)
	if err != nil {
		t.Fatalf("GetPrize failed: %v", err)
	}
	if got.Remaining != 3 {
		t.Errorf("remaining = %d, want 3", got.Remaining)
	}

	if _, err := DeleteParticipant(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestPrizeNamesWithCommasSurvive(t *testing.T) {
	setupTestDB(t)

	p, err := AddParticipant("Alice", 2, "🦁", "")
	if err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	prize, err := AddPrize("Coffee, tea, and sugar set", "", "", 2)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}
	if err := AwardPrize(p.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	participants, err := GetParticipants()
	if err != nil {
		t.Fatalf("GetParticipants failed: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(participants))
	}
	if len(participants[0].Prizes) != 1 {
		t.Fatalf("expected 1 prize name, got %v", participants[0].Prizes)
	}
	if participants[0].Prizes[0] != "Coffee, tea, and sugar set" {
		t.Errorf("prize name mangled: %q", participants[0].Prizes[0])
	}
}

func TestAddPrizeValidation(t *testing.T) {
	setupTestDB(t)

	if _, err := AddPrize("", "", "", 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := AddPrize("Mug", "", "", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero quantity: expected ErrInvalidInput, got %v", err)
	}
}

func TestPrizeRemainingAndWinners(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 2, "🦁", "")
	bob, _ := AddParticipant("Bob", 2, "🐘", "")
	prize, err := AddPrize("Mug", "A nice mug", "", 3)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}
	if prize.Remaining != 3 {
		t.Errorf("fresh prize remaining = %d, want 3", prize.Remaining)
	}

	if err := AwardPrize(alice.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}
	if err := AwardPrize(bob.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	got, err := GetPrize(prize.ID)
	if err != nil {
		t.Fatalf("GetPrize failed: %v", err)
	}
	if got.Remaining != 1 {
		t.Errorf("remaining = %d, want 1", got.Remaining)
	}
	if len(got.Winners) != 2 || got.Winners[0] != "Alice" || got.Winners[1] != "Bob" {
		t.Errorf("winners = %v, want [Alice Bob]", got.Winners)
	}
}

func TestUpdatePrizeQuantityBelowAssigned(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 2, "🦁", "")
	bob, _ := AddParticipant("Bob", 2, "🐘", "")
	prize, err := AddPrize("Mug", "", "", 3)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}
	if err := AwardPrize(alice.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}
	if err := AwardPrize(bob.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	one := 1
	if _, err := UpdatePrize(prize.ID, PrizeUpdate{Quantity: &one}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}

	two := 2
	updated, err := UpdatePrize(prize.ID, PrizeUpdate{Quantity: &two})
	if err != nil {
		t.Fatalf("reducing to assigned count should succeed, got %v", err)
	}
	if updated.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", updated.Remaining)
	}
}

func TestRemovePrizeWithAwards(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 2, "🦁", "")
	prize, err := AddPrize("Mug", "", "/api/uploads/prizes/mug.png", 1)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}
	if err := AwardPrize(alice.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	if _, err := RemovePrize(prize.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState while awarded, got %v", err)
	}

	if err := RemoveAward(alice.ID, 0); err != nil {
		t.Fatalf("RemoveAward failed: %v", err)
	}

	photoPath, err := RemovePrize(prize.ID)
	if err != nil {
		t.Fatalf("RemovePrize failed: %v", err)
	}
	if photoPath != "/api/uploads/prizes/mug.png" {
		t.Errorf("unexpected photo path: %s", photoPath)
	}
	if _, err := GetPrize(prize.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAwardPrizeCapacity(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 1, "🦁", "")
	bob, _ := AddParticipant("Bob", 5, "🐘", "")
	prize, err := AddPrize("Mug", "", "", 1)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}

	if err := AwardPrize(alice.ID, prize.ID); err != nil {
		t.Fatalf("first award failed: %v", err)
	}

	// 参加者側の上限
	if err := AwardPrize(alice.ID, prize.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("participant at capacity: expected ErrCapacityExceeded, got %v", err)
	}

	// 賞品側の上限
	if err := AwardPrize(bob.ID, prize.ID); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("prize at capacity: expected ErrCapacityExceeded, got %v", err)
	}

	if err := AwardPrize(999, prize.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing participant: expected ErrNotFound, got %v", err)
	}
	if err := AwardPrize(bob.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing prize: expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAwardLastUnit(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 10, "🦁", "")
	bob, _ := AddParticipant("Bob", 10, "🐘", "")
	prize, err := AddPrize("Mug", "", "", 1)
	if err != nil {
		t.Fatalf("AddPrize failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pid := range []int64{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, pid int64) {
			defer wg.Done()
			errs[i] = AwardPrize(pid, prize.ID)
		}(i, pid)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one award should succeed, got %d", succeeded)
	}

	got, err := GetPrize(prize.ID)
	if err != nil {
		t.Fatalf("GetPrize failed: %v", err)
	}
	if got.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", got.Remaining)
	}
}

func TestRemoveAwardIndex(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 3, "🦁", "")
	mug, _ := AddPrize("Mug", "", "", 2)
	hat, _ := AddPrize("Hat", "", "", 2)

	if err := AwardPrize(alice.ID, mug.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}
	if err := AwardPrize(alice.ID, hat.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	if err := RemoveAward(alice.ID, 5); !errors.Is(err, ErrInvalidState) {
		t.Errorf("out-of-range index: expected ErrInvalidState, got %v", err)
	}
	if err := RemoveAward(alice.ID, -1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("negative index: expected ErrInvalidState, got %v", err)
	}

	// index 0 は最初に獲得した賞品
	if err := RemoveAward(alice.ID, 0); err != nil {
		t.Fatalf("RemoveAward failed: %v", err)
	}

	got, err := GetParticipant(alice.ID)
	if err != nil {
		t.Fatalf("GetParticipant failed: %v", err)
	}
	if len(got.Prizes) != 1 || got.Prizes[0] != "Hat" {
		t.Errorf("prizes = %v, want [Hat]", got.Prizes)
	}

	if err := RemoveAward(alice.ID, 0); err != nil {
		t.Fatalf("RemoveAward failed: %v", err)
	}
	if err := RemoveAward(alice.ID, 0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("no awards left: expected ErrInvalidState, got %v", err)
	}
}

func TestClearAllAwards(t *testing.T) {
	setupTestDB(t)

	alice, _ := AddParticipant("Alice", 2, "🦁", "")
	prize, _ := AddPrize("Mug", "", "", 2)
	if err := AwardPrize(alice.ID, prize.ID); err != nil {
		t.Fatalf("AwardPrize failed: %v", err)
	}

	if err := ClearAllAwards(); err != nil {
		t.Fatalf("ClearAllAwards failed: %v", err)
	}

	got, _ := GetParticipant(alice.ID)
	if len(got.Prizes) != 0 {
		t.Errorf("prizes should be empty, got %v", got.Prizes)
	}
	p, _ := GetPrize(prize.ID)
	if p.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", p.Remaining)
	}
}

func TestClearEverything(t *testing.T) {
	setupTestDB(t)

	AddParticipant("Alice", 2, "🦁", "/api/uploads/participants/a.jpg")
	AddParticipant("Bob", 2, "🐘", "")
	AddPrize("Mug", "", "/api/uploads/prizes/m.png", 2)

	photoPaths, err := ClearEverything()
	if err != nil {
		t.Fatalf("ClearEverything failed: %v", err)
	}
	if len(photoPaths) != 2 {
		t.Errorf("expected 2 photo paths, got %v", photoPaths)
	}

	participants, _ := GetParticipants()
	if len(participants) != 0 {
		t.Errorf("participants should be empty, got %d", len(participants))
	}
	prizes, _ := GetPrizes()
	if len(prizes) != 0 {
		t.Errorf("prizes should be empty, got %d", len(prizes))
	}
}

func TestSettingsDefaults(t *testing.T) {
	setupTestDB(t)

	settings, err := GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if !settings.AutoPrizeSelection || !settings.AllowMultipleWins {
		t.Errorf("defaults should both be true, got %+v", settings)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	setupTestDB(t)

	off := false
	settings, err := UpdateSettings(types.SettingsPatch{AllowMultipleWins: &off})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if settings.AllowMultipleWins {
		t.Error("allow_multiple_wins should be false")
	}
	if !settings.AutoPrizeSelection {
		t.Error("auto_prize_selection should keep its prior value")
	}

	// 設定は再読込しても残る
	settings, err = GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.AllowMultipleWins {
		t.Error("allow_multiple_wins should persist as false")
	}
}
