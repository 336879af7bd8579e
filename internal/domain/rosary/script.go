package rosary

import (
	"fmt"

	"github.com/google/uuid"
)

// Prayer ids referenced by the script.
const (
	SignOfCross   = "sign_of_cross"
	ApostlesCreed = "apostles_creed"
	OurFather     = "our_father"
	HailMary      = "hail_mary"
	GloryBe       = "glory_be"
	Fatima        = "fatima"
	HailHolyQueen = "hail_holy_queen"
)

var prayerTitles = map[string]string{
	SignOfCross:   "Sign of the Cross",
	ApostlesCreed: "Apostles' Creed",
	OurFather:     "Our Father",
	HailMary:      "Hail Mary",
	GloryBe:       "Glory Be",
	Fatima:        "Fatima Prayer",
	HailHolyQueen: "Hail Holy Queen",
}

const (
	decadeCount        = 5
	hailMarysPerDecade = 10
	openingSteps       = 7
	stepsPerDecade     = 1 + 1 + hailMarysPerDecade + 1 + 1
	closingSteps       = 2
)

// StepCount is the length of every generated script.
const StepCount = openingSteps + decadeCount*stepsPerDecade + closingSteps

// Generate expands a mystery into the full rosary script. Every call yields
// fresh step ids.
func Generate(m Mystery) Script {
	steps := make(Script, 0, StepCount)

	prayer := func(id string) {
		steps = append(steps, Step{ID: uuid.NewString(), Title: prayerTitles[id], Content: PrayerReference(id)})
	}
	text := func(value, title string) {
		steps = append(steps, Step{ID: uuid.NewString(), Title: title, Content: LiteralText(value)})
	}

	// Opening
	prayer(SignOfCross)
	prayer(ApostlesCreed)
	prayer(OurFather)
	for i := 0; i < 3; i++ {
		prayer(HailMary)
	}
	prayer(GloryBe)

	for i, caption := range m.Meditations() {
		text(caption, fmt.Sprintf("Mystery %d — %s", i+1, m.Title()))
		prayer(OurFather)
		for j := 0; j < hailMarysPerDecade; j++ {
			prayer(HailMary)
		}
		prayer(GloryBe)
		prayer(Fatima)
	}

	// Closing
	prayer(HailHolyQueen)
	prayer(SignOfCross)

	return steps
}
