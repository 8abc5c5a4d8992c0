package comparers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapinhall-oss/reclink/internal/record"
)

func testRecord(fields map[string]string, floats map[string]float64) *record.Record {
	r := &record.Record{}
	for k, v := range fields {
		r.SetString(k, v)
	}
	for k, v := range floats {
		r.SetFloat(k, v, true)
	}
	return r
}

func personFields() record.FieldSet {
	return record.FieldSet{
		record.FieldCommonID: true,
		record.FieldFName:    true,
		record.FieldMName:    true,
		record.FieldLName:    true,
		record.FieldAltLName: true,
		record.FieldMinitial: true,
		record.FieldZipcode:  true,
		record.FieldByear:    true,
		record.FieldBmonth:   true,
		record.FieldBday:     true,
	}
}

func defaultParams() map[string]Param {
	return map[string]Param{
		"fname":      {Comparer: "jarowinkler", MissingValue: -1},
		"lname":      {Comparer: "jarowinkler", MissingValue: -1},
		"mname":      {Comparer: "levenshtein", MissingValue: -1},
		"fnamelname": {Comparer: "inv_jarowinkler", MissingValue: -1},
		"lnamefname": {Comparer: "inv_jarowinkler", MissingValue: -1},
		"common_id":  {Comparer: "levenshtein", MissingValue: -1},
		"zipcode":    {Comparer: "exact", MissingValue: -1},
		"byear":      {Comparer: "byear", MissingValue: -1, WithinYear: 0.7, YearDif: 1},
		"bmonthbday": {Comparer: "bmonthbday", MissingValue: -1, SwapMonthDay: 0.8, EitherMonthDay: 0.4},
		"minitial":   {Comparer: "minitial", MissingValue: -1, MinitMatchMnameUnclear: 0.7},
	}
}

func buildAll(t *testing.T, names ...string) Registry {
	t.Helper()
	reg, err := Build(names, defaultParams(), personFields(), personFields())
	require.NoError(t, err)
	return reg
}

func TestJaroWinkler_KnownPairs(t *testing.T) {
	assert.InDelta(t, 0.961, jaroWinklerSim("MARTHA", "MARHTA"), 0.005)
	assert.InDelta(t, 0.84, jaroWinklerSim("DWAYNE", "DUANE"), 0.01)
	assert.Equal(t, 0.0, jaroWinklerSim("ABC", "XYZ"))
}

func TestStringComparer_ExactAndMissing(t *testing.T) {
	reg := buildAll(t, "fname")
	cf := reg["fname"]

	a := testRecord(map[string]string{"fname": "JOHN"}, nil)
	b := testRecord(map[string]string{"fname": "JOHN"}, nil)
	assert.Equal(t, 1.0, cf(a, b))

	b2 := testRecord(map[string]string{"fname": "JON"}, nil)
	score := cf(a, b2)
	assert.Greater(t, score, 0.8)
	assert.Less(t, score, 1.0)

	empty := testRecord(nil, nil)
	assert.Equal(t, -1.0, cf(a, empty))
	assert.Equal(t, -1.0, cf(empty, b))
}

func TestInvertedComparer_SwappedNames(t *testing.T) {
	reg := buildAll(t, "fnamelname", "lnamefname")

	a := testRecord(map[string]string{"fname": "KIM", "lname": "LEE"}, nil)
	b := testRecord(map[string]string{"fname": "LEE", "lname": "KIM"}, nil)

	assert.Equal(t, 1.0, reg["fnamelname"](a, b))
	assert.Equal(t, 1.0, reg["lnamefname"](a, b))
}

func TestByear_Tiers(t *testing.T) {
	reg := buildAll(t, "byear")
	cf := reg["byear"]

	a := testRecord(nil, map[string]float64{"byear": 1980})
	assert.Equal(t, 1.0, cf(a, testRecord(nil, map[string]float64{"byear": 1980})))
	assert.Equal(t, 0.7, cf(a, testRecord(nil, map[string]float64{"byear": 1981})))
	assert.Equal(t, 0.7, cf(a, testRecord(nil, map[string]float64{"byear": 1979})))
	assert.Equal(t, 0.0, cf(a, testRecord(nil, map[string]float64{"byear": 1985})))
	assert.Equal(t, -1.0, cf(a, testRecord(nil, nil)))
}

func TestBmonthBday_Tiers(t *testing.T) {
	reg := buildAll(t, "bmonthbday")
	cf := reg["bmonthbday"]

	a := testRecord(nil, map[string]float64{"bmonth": 3, "bday": 7})
	assert.Equal(t, 1.0, cf(a, testRecord(nil, map[string]float64{"bmonth": 3, "bday": 7})))
	assert.Equal(t, 0.8, cf(a, testRecord(nil, map[string]float64{"bmonth": 7, "bday": 3})))
	assert.Equal(t, 0.4, cf(a, testRecord(nil, map[string]float64{"bmonth": 3, "bday": 9})))
	assert.Equal(t, 0.4, cf(a, testRecord(nil, map[string]float64{"bmonth": 9, "bday": 7})))
	assert.Equal(t, 0.0, cf(a, testRecord(nil, map[string]float64{"bmonth": 9, "bday": 9})))
	assert.Equal(t, -1.0, cf(a, testRecord(nil, map[string]float64{"bmonth": 3})))
}

func TestMinitial_SingleLetterEvidence(t *testing.T) {
	reg := buildAll(t, "minitial")
	cf := reg["minitial"]

	// Initial matches and one mname is a single letter: strong evidence.
	a := testRecord(map[string]string{"minitial": "J", "mname": "J"}, nil)
	b := testRecord(map[string]string{"minitial": "J", "mname": "JOHN"}, nil)
	assert.Equal(t, 1.0, cf(a, b))

	// Initials match but both mnames are full words: unclear.
	a2 := testRecord(map[string]string{"minitial": "J", "mname": "JAMES"}, nil)
	assert.Equal(t, 0.7, cf(a2, b))

	// Initial mismatch.
	c := testRecord(map[string]string{"minitial": "K", "mname": "KAREN"}, nil)
	assert.Equal(t, 0.0, cf(a, c))

	// Missing initial on one side.
	d := testRecord(map[string]string{"mname": "JOHN"}, nil)
	assert.Equal(t, -1.0, cf(a, d))
}

func TestSymmetry(t *testing.T) {
	// Every comparer except the directional inverted pair must return
	// the same score when A and B are swapped.
	reg := buildAll(t, "fname", "lname", "mname", "common_id", "zipcode", "byear", "bmonthbday", "minitial")

	a := testRecord(
		map[string]string{"fname": "JOHN", "lname": "SMITH", "mname": "DAVID", "common_id": "123456789", "zipcode": "60601", "minitial": "D"},
		map[string]float64{"byear": 1980, "bmonth": 3, "bday": 7})
	b := testRecord(
		map[string]string{"fname": "JON", "lname": "SMYTH", "mname": "D", "common_id": "123456780", "zipcode": "60602", "minitial": "D"},
		map[string]float64{"byear": 1981, "bmonth": 7, "bday": 3})

	for name, cf := range reg {
		assert.Equal(t, cf(a, b), cf(b, a), "comparer %s not symmetric", name)
	}
}

func TestBuild_UnknownComparerKind(t *testing.T) {
	params := map[string]Param{"fname": {Comparer: "soundexish"}}
	_, err := Build([]string{"fname"}, params, personFields(), personFields())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized comparer kind")
}

func TestBuild_MissingParamEntry(t *testing.T) {
	_, err := Build([]string{"nickname"}, defaultParams(), personFields(), personFields())
	require.Error(t, err)
}

func TestBuild_SkipsComparisonsMissingFields(t *testing.T) {
	fieldsB := record.FieldSet{record.FieldFName: true}
	reg, err := Build([]string{"fname", "lname"}, defaultParams(), personFields(), fieldsB)
	require.NoError(t, err)
	assert.Contains(t, reg, "fname")
	assert.NotContains(t, reg, "lname")
}

func TestLevenshtein_Normalized(t *testing.T) {
	assert.Equal(t, 1.0, levenshteinSim("", ""))
	assert.InDelta(t, 0.8, levenshteinSim("SMITH", "SMYTH"), 1e-9)
	assert.Equal(t, 0.0, levenshteinSim("AB", "XYZM"))
}

func TestNumericComparer_LinearDecay(t *testing.T) {
	params := map[string]Param{"byear": {Comparer: "numeric", MissingValue: -1, Offset: 10}}
	fields := record.FieldSet{record.FieldByear: true}
	reg, err := Build([]string{"byear"}, params, fields, fields)
	require.NoError(t, err)
	cf := reg["byear"]

	a := testRecord(nil, map[string]float64{"byear": 1980})
	assert.Equal(t, 1.0, cf(a, testRecord(nil, map[string]float64{"byear": 1980})))
	assert.InDelta(t, 0.5, cf(a, testRecord(nil, map[string]float64{"byear": 1985})), 1e-9)
	assert.Equal(t, 0.0, cf(a, testRecord(nil, map[string]float64{"byear": 2000})))
}

func TestValidCompNames_DerivedComparisons(t *testing.T) {
	names := ValidCompNames(personFields())
	assert.Contains(t, names, "fnamelname")
	assert.Contains(t, names, "lnamefname")
	assert.Contains(t, names, "bmonthbday")
	assert.NotContains(t, names, "xf")
}
