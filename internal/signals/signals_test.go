package signals

import "testing"

func TestKindsOrderIsFixed(t *testing.T) {
	got := Kinds()
	want := []Kind{ServiceRunning, ServiceUpToDate, PluginsUpToDate, RuntimeUpToDate}
	if len(got) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kind %d: got %v want %v", i, got[i], want[i])
		}
	}
	got[0] = RuntimeUpToDate
	if Kinds()[0] != ServiceRunning {
		t.Fatal("Kinds must return a copy")
	}
}

func TestParseKindAcceptsKeysAndNames(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"hbRunning", ServiceRunning},
		{"hbUtd", ServiceUpToDate},
		{"pluginsUtd", PluginsUpToDate},
		{"nodeUtd", RuntimeUpToDate},
		{"runtime_up_to_date", RuntimeUpToDate},
	}
	for _, tc := range tests {
		got, ok := ParseKind(tc.input)
		if !ok || got != tc.want {
			t.Fatalf("ParseKind(%q) = %v, %v; want %v", tc.input, got, ok, tc.want)
		}
	}
	if _, ok := ParseKind("bogus"); ok {
		t.Fatal("expected unknown key to fail")
	}
}

func TestSetDefaultsToUnknown(t *testing.T) {
	var set Set
	for _, kind := range Kinds() {
		if set.Get(kind) != Unknown {
			t.Fatalf("expected unknown for %v", kind)
		}
	}
	updated := set.With(PluginsUpToDate, False)
	if updated.Get(PluginsUpToDate) != False {
		t.Fatal("expected With to set value")
	}
	if set.Get(PluginsUpToDate) != Unknown {
		t.Fatal("With must not mutate the receiver")
	}
	if updated.Get(Kind(42)) != Unknown {
		t.Fatal("invalid kinds read unknown")
	}
}

func TestFromPtr(t *testing.T) {
	yes, no := true, false
	if FromPtr(nil) != Unknown || FromPtr(&yes) != True || FromPtr(&no) != False {
		t.Fatal("unexpected FromPtr mapping")
	}
	if !True.IsTrue() || False.IsTrue() || Unknown.IsTrue() {
		t.Fatal("unexpected IsTrue mapping")
	}
}
