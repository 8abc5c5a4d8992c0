// Package record defines the standardized person-record schema that the
// rest of the engine operates over: a dense-indexed table of rows whose
// comparison fields are all optional.
package record

import (
	"fmt"
	"math"
)

// Record is one standardized row. Idx is dense within a Table; IndvID is
// the external identifier for the individual this row describes (may
// repeat across rows in the same table). Every comparison field is
// optional: an empty string or NaN in the source data normalizes to an
// absent field here, never to a zero value that could be mistaken for
// real data.
type Record struct {
	Idx    int
	IndvID string

	CommonID string
	FName    string
	MName    string
	LName    string
	AltLName string
	Minitial string
	XF       string
	XL       string
	Zipcode  string
	County   string

	Byear  float64
	Bmonth float64
	Bday   float64

	// set bits mark which of the above fields are present for this row;
	// absence disables any comparer referencing the field.
	present fieldBit

	// GroundTruth maps a configured ground-truth identifier's logical
	// name to its value for this row. A name absent from the map (or
	// mapped to "") means the row carries no value for that ID.
	GroundTruth map[string]string
}

type fieldBit uint32

const (
	bitCommonID fieldBit = 1 << iota
	bitFName
	bitMName
	bitLName
	bitAltLName
	bitMinitial
	bitXF
	bitXL
	bitZipcode
	bitCounty
	bitByear
	bitBmonth
	bitBday
)

// Logical field name constants, shared with config and comparers so
// every package names fields the same way.
const (
	FieldCommonID = "common_id"
	FieldFName    = "fname"
	FieldMName    = "mname"
	FieldLName    = "lname"
	FieldAltLName = "altlname"
	FieldMinitial = "minitial"
	FieldXF       = "xf"
	FieldXL       = "xl"
	FieldZipcode  = "zipcode"
	FieldCounty   = "county"
	FieldByear    = "byear"
	FieldBmonth   = "bmonth"
	FieldBday     = "bday"
)

var stringBits = map[string]fieldBit{
	FieldCommonID: bitCommonID,
	FieldFName:    bitFName,
	FieldMName:    bitMName,
	FieldLName:    bitLName,
	FieldAltLName: bitAltLName,
	FieldMinitial: bitMinitial,
	FieldXF:       bitXF,
	FieldXL:       bitXL,
	FieldZipcode:  bitZipcode,
	FieldCounty:   bitCounty,
}

var floatBits = map[string]fieldBit{
	FieldByear:  bitByear,
	FieldBmonth: bitBmonth,
	FieldBday:   bitBday,
}

// SetString sets a textual logical field. An empty value marks the field
// absent rather than storing the empty string.
func (r *Record) SetString(field, value string) {
	bit, ok := stringBits[field]
	if !ok {
		panic(fmt.Sprintf("record: unknown string field %q", field))
	}
	if value == "" {
		r.present &^= bit
		return
	}
	switch field {
	case FieldCommonID:
		r.CommonID = value
	case FieldFName:
		r.FName = value
	case FieldMName:
		r.MName = value
	case FieldLName:
		r.LName = value
	case FieldAltLName:
		r.AltLName = value
	case FieldMinitial:
		r.Minitial = value
	case FieldXF:
		r.XF = value
	case FieldXL:
		r.XL = value
	case FieldZipcode:
		r.Zipcode = value
	case FieldCounty:
		r.County = value
	}
	r.present |= bit
}

// SetFloat sets a numeric logical field (byear/bmonth/bday). present=false
// marks the value absent, as does a NaN value; non-numeric source data
// coerces to absent.
func (r *Record) SetFloat(field string, value float64, present bool) {
	bit, ok := floatBits[field]
	if !ok {
		panic(fmt.Sprintf("record: unknown numeric field %q", field))
	}
	if !present || math.IsNaN(value) {
		r.present &^= bit
		return
	}
	switch field {
	case FieldByear:
		r.Byear = value
	case FieldBmonth:
		r.Bmonth = value
	case FieldBday:
		r.Bday = value
	}
	r.present |= bit
}

// String returns a textual logical field and whether it is present.
func (r *Record) String(field string) (string, bool) {
	bit, ok := stringBits[field]
	if !ok {
		return "", false
	}
	if r.present&bit == 0 {
		return "", false
	}
	switch field {
	case FieldCommonID:
		return r.CommonID, true
	case FieldFName:
		return r.FName, true
	case FieldMName:
		return r.MName, true
	case FieldLName:
		return r.LName, true
	case FieldAltLName:
		return r.AltLName, true
	case FieldMinitial:
		return r.Minitial, true
	case FieldXF:
		return r.XF, true
	case FieldXL:
		return r.XL, true
	case FieldZipcode:
		return r.Zipcode, true
	case FieldCounty:
		return r.County, true
	}
	return "", false
}

// Float returns a numeric logical field and whether it is present.
func (r *Record) Float(field string) (float64, bool) {
	bit, ok := floatBits[field]
	if !ok {
		return 0, false
	}
	if r.present&bit == 0 {
		return 0, false
	}
	switch field {
	case FieldByear:
		return r.Byear, true
	case FieldBmonth:
		return r.Bmonth, true
	case FieldBday:
		return r.Bday, true
	}
	return 0, false
}

// Has reports whether a logical field (string or numeric) is present.
func (r *Record) Has(field string) bool {
	if bit, ok := stringBits[field]; ok {
		return r.present&bit != 0
	}
	if bit, ok := floatBits[field]; ok {
		return r.present&bit != 0
	}
	return false
}
