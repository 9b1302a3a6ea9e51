package model

import "fmt"

// Verdict is the link health classification of a Sample. Values are ordered
// by severity so the zero value is the best outcome.
type Verdict int

const (
	VerdictGood Verdict = iota
	VerdictPoor
	VerdictFailure
)

var verdictNames = [...]string{
	VerdictGood:    "Good",
	VerdictPoor:    "Poor",
	VerdictFailure: "Failure",
}

func (v Verdict) String() string {
	if v < VerdictGood || v > VerdictFailure {
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
	return verdictNames[v]
}

// Worse returns the more severe of v and o.
func (v Verdict) Worse(o Verdict) Verdict {
	if o > v {
		return o
	}
	return v
}

func (v Verdict) MarshalText() ([]byte, error) {
	if v < VerdictGood || v > VerdictFailure {
		return nil, fmt.Errorf("invalid verdict %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	for i, name := range verdictNames {
		if name == string(text) {
			*v = Verdict(i)
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", string(text))
}

// AuthMethod is the security method of the current association.
type AuthMethod string

const (
	AuthOpen    AuthMethod = "Open"
	AuthWPA     AuthMethod = "WPA"
	AuthWPA2    AuthMethod = "WPA2"
	AuthWPA3    AuthMethod = "WPA3"
	AuthUnknown AuthMethod = "Unknown"
)
