package service

import "strings"

var weekdayIndexToName = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

var weekdayNameToIndex = func() map[string]int {
	m := make(map[string]int, len(weekdayIndexToName))
	for i, name := range weekdayIndexToName {
		m[strings.ToUpper(name)] = i
	}
	return m
}()

func weekdayName(i int) string {
	if name, ok := weekdayIndexToName[i]; ok {
		return name
	}
	return "Monday"
}

func weekdayIndex(name string) int {
	return weekdayNameToIndex[strings.ToUpper(strings.TrimSpace(name))]
}
