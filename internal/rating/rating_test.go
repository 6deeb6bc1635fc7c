package rating

import "testing"

func TestEqualRatingsDecisive(t *testing.T) {
	dw, dl := Deltas(1200, 1200, Win)
	if dw != 16 || dl != -16 {
		t.Fatalf("expected +16/-16 at K=32, got %d/%d", dw, dl)
	}
	// Mirrored loss gives the same magnitudes.
	dl2, dw2 := Deltas(1200, 1200, Loss)
	if dl2 != -16 || dw2 != 16 {
		t.Fatalf("mirrored loss mismatch: %d/%d", dl2, dw2)
	}
}

func TestEqualRatingsDraw(t *testing.T) {
	da, db := Deltas(1200, 1200, Draw)
	if da != 0 || db != 0 {
		t.Fatalf("draw between equals should be 0/0, got %d/%d", da, db)
	}
}

func TestFavoriteLosesBig(t *testing.T) {
	// 1400 loses to 1000: heavily expected to win, so the loss costs more
	// than a loss between equals.
	dLoser, dWinner := Deltas(1400, 1000, Loss)
	if dLoser >= 0 {
		t.Fatalf("loser delta must be negative, got %d", dLoser)
	}
	if dWinner <= 0 {
		t.Fatalf("winner delta must be positive, got %d", dWinner)
	}
	if -dLoser <= 16 {
		t.Fatalf("upset loss should exceed the even-match penalty, got %d", dLoser)
	}
	if dLoser != -29 || dWinner != 29 {
		t.Fatalf("expected -29/+29, got %d/%d", dLoser, dWinner)
	}
}

func TestExpectedSymmetry(t *testing.T) {
	for _, tc := range [][2]int{{1000, 1000}, {1200, 1000}, {1850, 990}} {
		ea := Expected(tc[0], tc[1])
		eb := Expected(tc[1], tc[0])
		if diff := ea + eb - 1; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("expected scores must sum to 1 for %v, got %v", tc, ea+eb)
		}
	}
}
