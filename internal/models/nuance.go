package models

// Scale identifies a bipolar nuance scale.
type Scale string

// Nuance scales, in registry order.
const (
	ScaleFearSafety       Scale = "fear_safety"
	ScaleAnxietyStability Scale = "anxiety_stability"
	ScaleWorryCarefree    Scale = "worry_carefree"
	ScaleOminousGood      Scale = "ominous_good"
	ScaleGuiltProud       Scale = "guilt_proud"
)

// Pole is the side of a scale an entry selected.
type Pole int

const (
	PoleNone Pole = iota
	PoleNegative
	PolePositive
)

// ScaleInfo is the static configuration of a nuance scale.
type ScaleInfo struct {
	Key      Scale  `json:"key"`
	Negative string `json:"negative"`
	Positive string `json:"positive"`
}

var scales = []Scale{
	ScaleFearSafety,
	ScaleAnxietyStability,
	ScaleWorryCarefree,
	ScaleOminousGood,
	ScaleGuiltProud,
}

// Poles returns the negative and positive pole labels of s.
func (s Scale) Poles() (negative, positive string, ok bool) {
	switch s {
	case ScaleFearSafety:
		return "무섭다", "안전하다", true
	case ScaleAnxietyStability:
		return "불안하다", "안정적이다", true
	case ScaleWorryCarefree:
		return "걱정하다", "태평천하하다", true
	case ScaleOminousGood:
		return "불길하다", "예감이 좋다", true
	case ScaleGuiltProud:
		return "죄책감이 든다", "떳떳당당하다", true
	}
	return "", "", false
}

// Valid reports whether s is a known scale.
func (s Scale) Valid() bool {
	_, _, ok := s.Poles()
	return ok
}

// PoleOf maps a recorded value to the pole it names.
// Values that match neither pole (or unknown scales) yield PoleNone.
func (s Scale) PoleOf(value string) Pole {
	neg, pos, ok := s.Poles()
	switch {
	case !ok:
		return PoleNone
	case value == neg:
		return PoleNegative
	case value == pos:
		return PolePositive
	}
	return PoleNone
}

// Scales returns all scale keys in registry order.
func Scales() []Scale {
	out := make([]Scale, len(scales))
	copy(out, scales)
	return out
}

// ScaleInfos returns the configuration of every scale in registry order.
func ScaleInfos() []ScaleInfo {
	out := make([]ScaleInfo, 0, len(scales))
	for _, s := range scales {
		neg, pos, _ := s.Poles()
		out = append(out, ScaleInfo{Key: s, Negative: neg, Positive: pos})
	}
	return out
}
