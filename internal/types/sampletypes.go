package types

import "time"

// Sample type identifiers understood by the sample source. Quantity
// types carry a scalar value; sleepAnalysis and mindfulSession are
// category types carrying an interval (and, for sleep, a stage kind).
const (
	SampleStepCount         = "stepCount"
	SampleDistanceWalkRun   = "distanceWalkingRunning"
	SampleActiveEnergy      = "activeEnergyBurned"
	SampleBasalEnergy       = "basalEnergyBurned"
	SampleExerciseTime      = "appleExerciseTime"
	SampleStandHour         = "appleStandHour"
	SampleFlightsClimbed    = "flightsClimbed"
	SampleVO2Max            = "vo2Max"
	SampleWalkingSpeed      = "walkingSpeed"
	SampleWalkingSteadiness = "appleWalkingSteadiness"

	SampleHeartRate        = "heartRate"
	SampleRestingHeartRate = "restingHeartRate"
	SampleHRVSDNN          = "heartRateVariabilitySDNN"
	SampleWalkingHeartRate = "walkingHeartRateAverage"

	SampleRespiratoryRate = "respiratoryRate"
	SampleOxygenSat       = "oxygenSaturation"
	SampleBPSystolic      = "bloodPressureSystolic"
	SampleBPDiastolic     = "bloodPressureDiastolic"
	SampleBodyTemperature = "bodyTemperature"

	SampleBodyMass      = "bodyMass"
	SampleBodyMassIndex = "bodyMassIndex"
	SampleBodyFatPct    = "bodyFatPercentage"
	SampleHeight        = "height"

	SampleSleepAnalysis  = "sleepAnalysis"
	SampleMindfulSession = "mindfulSession"

	SampleDietaryEnergy  = "dietaryEnergyConsumed"
	SampleDietaryProtein = "dietaryProtein"
	SampleDietaryCarbs   = "dietaryCarbohydrates"
	SampleDietaryFat     = "dietaryFatTotal"
	SampleDietaryFiber   = "dietaryFiber"
	SampleDietarySugar   = "dietarySugar"
	SampleDietarySodium  = "dietarySodium"
)

// SamplePoint is one reading in a raw quantity series.
type SamplePoint struct {
	Time  time.Time
	Value float64
}
