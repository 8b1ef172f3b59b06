package store

import (
	"context"
	"fmt"
	"time"

	"github.com/capture-logs/capture-logs/internal/model"
)

// DemoOS and DemoBrowsers are the descriptor rows loaded by Seed.
var (
	DemoOS = []model.Descriptor{
		{ID: 1, Name: "Windows"},
		{ID: 2, Name: "macOS"},
		{ID: 3, Name: "Linux"},
	}
	DemoBrowsers = []model.Descriptor{
		{ID: 1, Name: "Google Chrome"},
		{ID: 2, Name: "Microsoft Edge"},
		{ID: 3, Name: "Mozilla Firefox"},
		{ID: 4, Name: "Safari"},
		{ID: 5, Name: "Opera"},
		{ID: 6, Name: "Naver Whale"},
		{ID: 7, Name: "Vivaldi"},
	}
)

var demoUsers = []string{"Alice", "bob", "carol.kim", "DAVE", "eun-ji"}

var demoPrograms = []string{"Snipping Tool", "notepad.exe", "OBS Studio", "ShareX", "Notepad++"}

// DemoLogs generates n detection rows, one minute apart going back from
// newest, cycling through users, programs and descriptors. Every sixth row
// has no detected program and every seventh has no browser reference.
func DemoLogs(n int, newest time.Time) []model.LogRecord {
	rows := make([]model.LogRecord, 0, n)
	for i := 0; i < n; i++ {
		osID := DemoOS[i%len(DemoOS)].ID
		browserID := DemoBrowsers[i%len(DemoBrowsers)].ID
		program := demoPrograms[i%len(demoPrograms)]
		url := fmt.Sprintf("https://intranet.example.com/docs/%d", i)

		r := model.LogRecord{
			LogID:        int64(i + 1),
			Username:     demoUsers[i%len(demoUsers)],
			DeviceID:     fmt.Sprintf("00:1A:2B:3C:%02X:%02X", (i/256)%256, i%256),
			PageURL:      &url,
			DetectedTime: newest.Add(-time.Duration(i) * time.Minute).UTC(),
			OSID:         &osID,
			BrowserID:    &browserID,
		}
		if i%6 != 5 {
			r.DetectedProgram = &program
		}
		if i%7 == 6 {
			r.BrowserID = nil
		}
		rows = append(rows, r)
	}
	return rows
}

// Seed loads the demo descriptors and n demo logs.
func Seed(ctx context.Context, w model.FixtureWriter, n int, newest time.Time) error {
	if err := w.InsertDescriptors(ctx, model.OSTable, DemoOS); err != nil {
		return err
	}
	if err := w.InsertDescriptors(ctx, model.BrowserTable, DemoBrowsers); err != nil {
		return err
	}
	return w.InsertLogs(ctx, DemoLogs(n, newest))
}
