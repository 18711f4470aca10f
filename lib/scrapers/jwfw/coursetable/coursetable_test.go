package coursetable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const twoBlockFixture = `
var teachers = [{id:1234,name:"张三"}];
activity = new TaskActivity("1234","张三","ECON130003.01","国际金融","2525","H3208","01111111111111111000000000000000000000000000000000000");
index =1*unitCount+2;
table0.activities[index][table0.activities[index].length]=activity;
index =1*unitCount+3;
table0.activities[index][table0.activities[index].length]=activity;
index =1*unitCount+4;
table0.activities[index][table0.activities[index].length]=activity;
activity = new TaskActivity("5678","李四","PHYS120013.02","大学物理","2526","H4305","00000011111000000000000000000000000000000000000000000");
index =3*unitCount+7;
table0.activities[index][table0.activities[index].length]=activity;
`

func TestParseActivitiesTwoBlocks(t *testing.T) {
	activities, errs := ParseActivities(twoBlockFixture)
	require.Empty(t, errs)
	require.Len(t, activities, 2)

	expected := []Activity{
		{
			Id:       "1234",
			Teacher:  "张三",
			Course:   "ECON130003.01",
			Name:     "国际金融",
			RoomId:   "2525",
			Room:     "H3208",
			WeekMask: "01111111111111111000000000000000000000000000000000000",
			Weeks:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			Slots: []Slot{
				{Weekday: 1, Period: 2},
				{Weekday: 1, Period: 3},
				{Weekday: 1, Period: 4},
			},
		},
		{
			Id:       "5678",
			Teacher:  "李四",
			Course:   "PHYS120013.02",
			Name:     "大学物理",
			RoomId:   "2526",
			Room:     "H4305",
			WeekMask: "00000011111000000000000000000000000000000000000000000",
			Weeks:    []int{6, 7, 8, 9, 10},
			Slots:    []Slot{{Weekday: 3, Period: 7}},
		},
	}
	if diff := cmp.Diff(expected, activities); diff != "" {
		t.Fatalf("activities mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSkipsNonActivityConstructors(t *testing.T) {
	raw := `var table0 = new CourseTable(true, "702", 7, 14, null);
var unitCount = table0.unitCount;
activity = new TaskActivity("1","a","C.01","n","r","R","01");
index =1*unitCount+2;
table0.activities[index][table0.activities[index].length]=activity;`
	activities, errs := ParseActivities(raw)
	require.Empty(t, errs)
	require.Len(t, activities, 1)
	require.Equal(t, "C.01", activities[0].Course)
	require.Equal(t, []Slot{{Weekday: 1, Period: 2}}, activities[0].Slots)
}

func TestParseActivityWithoutSlots(t *testing.T) {
	raw := `activity = new TaskActivity("1","王五","COMP110004.01","程序设计","9","逸夫楼","0110100");`
	activities, errs := ParseActivities(raw)
	require.Empty(t, errs)
	require.Len(t, activities, 1)
	require.Empty(t, activities[0].Slots)
	require.Equal(t, []int{1, 2, 4}, activities[0].Weeks)
}

func TestParseToleratesLineBreakBeforeStore(t *testing.T) {
	raw := `activity = new TaskActivity("1","a","C.01","n","r","R","01");
index =2*unitCount+4;
table0.activities[index][
	table0.activities[index].length]=activity;`
	activities, errs := ParseActivities(raw)
	require.Empty(t, errs)
	require.Len(t, activities, 1)
	require.Equal(t, []Slot{{Weekday: 2, Period: 4}}, activities[0].Slots)
}

func TestParseBadBitmaskScopedToOneActivity(t *testing.T) {
	raw := `
activity = new TaskActivity("1","a","BAD.01","n","r","R","01x0");
index =0*unitCount+0;
table0.activities[index][table0.activities[index].length]=activity;
activity = new TaskActivity("2","b","GOOD.01","n","r","R","0101");
index =1*unitCount+1;
table0.activities[index][table0.activities[index].length]=activity;
`
	activities, errs := ParseActivities(raw)
	require.Len(t, errs, 1)
	require.ErrorContains(t, errs[0], "BAD.01")
	require.Len(t, activities, 1)
	require.Equal(t, "GOOD.01", activities[0].Course)
}

func TestDecodeWeeksRoundTrip(t *testing.T) {
	weeks, err := DecodeWeeks("0110100")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 4}, weeks)
	require.Equal(t, "0110100", EncodeWeeks(weeks, 7))
}

func TestDecodeWeeksRejectsJunk(t *testing.T) {
	_, err := DecodeWeeks("01a1")
	require.Error(t, err)
}
