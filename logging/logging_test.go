package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inmo_scrooper/models"
)

func TestRotatingWriter_RotatesPastMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")

	w, err := NewRotatingWriter(path, 16)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("0123456789abcdefXYZ\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected backup file after rotation: %v", err)
	}

	if _, err := w.Write([]byte("after\n")); err != nil {
		t.Fatalf("write after rotate: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "after\n" {
		t.Fatalf("expected fresh file with one line, got %q", data)
	}
}

func TestLogf_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetLevel(models.LogLevelInfo)
	}()

	SetLevel(models.LogLevelWarn)
	Infof("planner", "hidden %d", 1)
	Warnf("planner", "shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "[warn] planner: shown 2") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSetup_RotationSurvivesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "search.log")

	prevOut := log.Writer()
	w, err := Setup(path, 64)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() {
		log.SetOutput(prevOut)
		w.Close()
	}()

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove log dir: %v", err)
	}

	done := make(chan struct{})
	go func() {
		log.Printf("%s", strings.Repeat("x", 70))
		log.Printf("still logging")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("logging blocked after a failed rotation")
	}

	// once the directory is back the file side resumes
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("recreate dir: %v", err)
	}
	if _, err := w.Write([]byte("back\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "back\n" {
		t.Fatalf("expected reopened file, got %q", data)
	}
}

func TestRotatingWriter_WriteAfterCloseKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.log")
	w, err := NewRotatingWriter(path, 0)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	w.Write([]byte("kept\n"))
	w.Close()

	if _, err := w.Write([]byte("late\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "kept\n" {
		t.Fatalf("expected file untouched after close, got %q", data)
	}
}
