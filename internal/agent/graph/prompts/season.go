package prompts

import "time"

// Season is the Bangladesh agricultural calendar position of a date.
type Season struct {
	Date       string
	Month      string
	MonthNum   int
	Name       string
	Short      string
	Crops      string
	Activities string
	Challenges string
	Week       int
	Year       int
}

// SeasonContext places now in the Pre-Kharif / Kharif / Rabi calendar.
func SeasonContext(now time.Time) Season {
	_, week := now.ISOWeek()
	s := Season{
		Date:     now.Format("January 02, 2006"),
		Month:    now.Month().String(),
		MonthNum: int(now.Month()),
		Week:     week,
		Year:     now.Year(),
	}

	switch now.Month() {
	case time.April, time.May, time.June:
		s.Name = "Pre-Kharif (Chaitra-Jyaistha)"
		s.Short = "Pre-Kharif"
		s.Crops = "Aus rice, Jute, Sesame, Early vegetables, Mango harvest"
		s.Activities = "Land preparation for monsoon crops, irrigation management, summer vegetable care"
		s.Challenges = "Heat stress, water scarcity, pre-monsoon storms"
	case time.July, time.August, time.September, time.October:
		s.Name = "Kharif/Monsoon (Ashadh-Kartik)"
		s.Short = "Kharif"
		s.Crops = "Aman rice (T.Aman, B.Aman), Late jute, Monsoon vegetables"
		s.Activities = "Transplanting Aman rice, managing waterlogging, pest control"
		s.Challenges = "Flooding, excessive rain, pest pressure, fungal diseases"
	default:
		s.Name = "Rabi/Winter (Agrahayan-Falgun)"
		s.Short = "Rabi"
		s.Crops = "Boro rice, Wheat, Potato, Mustard, Lentils, Winter vegetables"
		s.Activities = "Boro seedbed preparation, winter crop sowing, irrigation scheduling"
		s.Challenges = "Irrigation needs, fog/cold stress, dry conditions"
	}
	return s
}
