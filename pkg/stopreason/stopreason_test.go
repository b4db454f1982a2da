package stopreason

import "testing"

func TestCategoryOf_Table(t *testing.T) {
	cases := []struct {
		kind Kind
		want Category
	}{
		{EndOfInput, CategoryInput},
		{Crash, CategoryCrash},
		{NonExecutable, CategoryCrash},
		{RomWrite, CategoryCrash},
		{LimitReached, CategoryTimeout},
		{InfiniteSleep, CategoryTimeout},
		{ExitHook, CategoryExit},
		{Script, CategoryExit},
		{Reset, CategoryExit},
		{Shutdown, CategoryExit},
		{Panic, CategoryExit},
		{Abort, CategoryExit},
		{UserExitRequest, CategoryInvalid},
	}
	for _, c := range cases {
		sr := StopReason{Kind: c.kind}
		if got := CategoryOf(sr); got != c.want {
			t.Errorf("CategoryOf(%v) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestStopReason_String_IncludesPayload(t *testing.T) {
	sr := StopReason{Kind: Crash, PC: 0x1000, RA: 0x2000, Exception: 4}
	got := sr.String()
	if got == "" {
		t.Fatal("String() returned empty string")
	}
	want := "Crash{pc=0x1000,ra=0x2000,exception=0x4}"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStopReason_String_LimitReached(t *testing.T) {
	sr := StopReason{Kind: LimitReached, Limit: LimitBasicBlocks}
	if got, want := sr.String(), "LimitReached(0)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCategory_String(t *testing.T) {
	cases := map[Category]string{
		CategoryInput:   "input",
		CategoryCrash:   "crash",
		CategoryExit:    "exit",
		CategoryTimeout: "timeout",
		CategoryInvalid: "invalid",
		Category(99):    "unknown",
	}
	for cat, want := range cases {
		if got := cat.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", cat, got, want)
		}
	}
}
