package scores

import "testing"

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestBodyBattery(t *testing.T) {
	tests := []struct {
		name string
		in   BatteryInput
		want int
	}{
		{
			name: "all inputs absent yields baseline",
			in:   BatteryInput{},
			want: 50,
		},
		{
			name: "every bonus at once reaches 100",
			in:   BatteryInput{HRV: fptr(80), SleepMinutes: fptr(480), Steps: iptr(8000)},
			want: 100,
		},
		{
			name: "every penalty at once bottoms out at 10",
			in:   BatteryInput{HRV: fptr(10), SleepMinutes: fptr(200), Steps: iptr(25000)},
			want: 10,
		},
		{
			name: "moderate hrv good sleep moderate steps",
			in:   BatteryInput{HRV: fptr(45), SleepMinutes: fptr(450), Steps: iptr(9000)},
			want: 90,
		},
		{
			name: "hrv alone above 50",
			in:   BatteryInput{HRV: fptr(62)},
			want: 70,
		},
		{
			name: "hrv in dead zone",
			in:   BatteryInput{HRV: fptr(28)},
			want: 50,
		},
		{
			name: "short sleep only",
			in:   BatteryInput{SleepMinutes: fptr(250)},
			want: 35,
		},
		{
			name: "oversleep gets the lesser bonus",
			in:   BatteryInput{SleepMinutes: fptr(600)},
			want: 60,
		},
		{
			name: "sedentary day is neutral",
			in:   BatteryInput{Steps: iptr(3000)},
			want: 50,
		},
		{
			name: "overexertion penalized",
			in:   BatteryInput{Steps: iptr(22000)},
			want: 40,
		},
		{
			name: "step boundary 5000 is exclusive",
			in:   BatteryInput{Steps: iptr(5000)},
			want: 50,
		},
		{
			name: "sleep boundary 540 is inclusive",
			in:   BatteryInput{SleepMinutes: fptr(540)},
			want: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BodyBattery(tt.in); got != tt.want {
				t.Errorf("BodyBattery(%+v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSleepQuality(t *testing.T) {
	tests := []struct {
		name string
		in   SleepQualityInput
		want int
	}{
		{
			name: "ideal night scores 100",
			in: SleepQualityInput{
				AsleepMinutes: fptr(480),
				DeepMinutes:   fptr(80),  // 16.7%
				REMMinutes:    fptr(100), // 20.8%
				EfficiencyPct: fptr(94),
			},
			want: 100,
		},
		{
			name: "no inputs scores zero",
			in:   SleepQualityInput{},
			want: 0,
		},
		{
			name: "short fragmented night",
			in: SleepQualityInput{
				AsleepMinutes: fptr(250),
				DeepMinutes:   fptr(10), // 4%
				REMMinutes:    fptr(20), // 8%
				EfficiencyPct: fptr(68),
			},
			want: 24, // 5 + 8 + 8 + 3
		},
		{
			name: "duration only",
			in:   SleepQualityInput{AsleepMinutes: fptr(400)},
			want: 22,
		},
		{
			name: "excess deep sleep falls to low bucket",
			in: SleepQualityInput{
				AsleepMinutes: fptr(430),
				DeepMinutes:   fptr(130), // 30%
			},
			want: 38, // 30 + 8
		},
		{
			name: "zero asleep minutes cannot derive stage shares",
			in: SleepQualityInput{
				AsleepMinutes: fptr(0),
				DeepMinutes:   fptr(60),
				REMMinutes:    fptr(60),
			},
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SleepQuality(tt.in); got != tt.want {
				t.Errorf("SleepQuality(%+v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestScoresAreDeterministic(t *testing.T) {
	in := BatteryInput{HRV: fptr(41.5), SleepMinutes: fptr(433), Steps: iptr(11204)}
	first := BodyBattery(in)
	for i := 0; i < 10; i++ {
		if got := BodyBattery(in); got != first {
			t.Fatalf("BodyBattery not deterministic: %d then %d", first, got)
		}
	}
}
