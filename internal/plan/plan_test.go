package plan

import "testing"

func TestSelectPolicyTable(t *testing.T) {
	tests := []struct {
		pref       Preference
		available  bool
		want       Plan
		downgraded bool
	}{
		{PreferAuto, true, Plan{Accelerated, High}, false},
		{PreferAuto, false, Plan{CPU, Low}, false},
		{PreferAccelerated, true, Plan{Accelerated, High}, false},
		{PreferAccelerated, false, Plan{CPU, Low}, true},
		{PreferCPU, true, Plan{CPU, Low}, false},
		{PreferCPU, false, Plan{CPU, Low}, false},
	}
	for _, tt := range tests {
		got := Select(tt.pref, tt.available)
		if got != tt.want {
			t.Errorf("Select(%s, %v) = %s, want %s", tt.pref, tt.available, got, tt.want)
		}
		if got.Backend == CPU && got.Precision != Low {
			t.Errorf("Select(%s, %v) paired cpu with %s", tt.pref, tt.available, got.Precision)
		}
		if got.Backend == Accelerated && got.Precision != High {
			t.Errorf("Select(%s, %v) paired accelerator with %s", tt.pref, tt.available, got.Precision)
		}
		if d := Downgraded(tt.pref, tt.available); d != tt.downgraded {
			t.Errorf("Downgraded(%s, %v) = %v, want %v", tt.pref, tt.available, d, tt.downgraded)
		}
	}
}

func TestParsePreference(t *testing.T) {
	tests := []struct {
		in      string
		want    Preference
		wantErr bool
	}{
		{"", PreferAuto, false},
		{"AUTO", PreferAuto, false},
		{"cuda", PreferAccelerated, false},
		{" gpu ", PreferAccelerated, false},
		{"accelerated", PreferAccelerated, false},
		{"cpu", PreferCPU, false},
		{"metal", PreferAuto, true},
	}
	for _, tt := range tests {
		got, err := ParsePreference(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParsePreference(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParsePreference(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDemoteReturnsFreshCPUPlan(t *testing.T) {
	original := AcceleratedPlan()
	demoted := original.Demote()
	if demoted != CPUPlan() {
		t.Fatalf("Demote() = %s, want cpu/int8", demoted)
	}
	if original != AcceleratedPlan() {
		t.Fatal("Demote must not mutate the receiver")
	}
}

func TestPlanWireNames(t *testing.T) {
	if got := AcceleratedPlan().String(); got != "cuda/float16" {
		t.Fatalf("accelerated plan = %q", got)
	}
	if got := CPUPlan().String(); got != "cpu/int8" {
		t.Fatalf("cpu plan = %q", got)
	}
}
