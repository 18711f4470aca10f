package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		panic(err)
	}
}

// force the campus timezone regardless of where the process runs,
// the portals compare dates in Shanghai local time so using the
// host timezone would shift Year()/Month()/Day() around midnight
func Now() time.Time {
	return time.Now().In(Location)
}

// Today formats t as the compact YYYYMMDD form the health-check
// portal reports check-in dates in.
func Today(t time.Time) string {
	return t.In(Location).Format("20060102")
}
