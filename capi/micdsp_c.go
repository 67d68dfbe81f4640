package main

/*
#include <stdint.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/opd-ai/micdsp"
	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/av/filter"
	"github.com/opd-ai/micdsp/limits"
	"github.com/sirupsen/logrus"
)

func main() {} // Required for c-shared build mode

const (
	defaultSampleRate = 48000
	defaultChannels   = 2
)

var errUnknownHandle = errors.New("unknown filter handle")

// Global filter management for C API compatibility
var (
	filterInstances       = make(map[int32]*micdsp.FilterSource)
	nextFilterID    int32 = 1
	filterMutex     sync.RWMutex

	moduleOnce sync.Once
	module     *micdsp.Module
	moduleErr  error
)

// loadModule creates and loads the shared module on first use.
func loadModule() (*micdsp.Module, error) {
	moduleOnce.Do(func() {
		output, err := micdsp.NewAudioOutput(defaultSampleRate, defaultChannels)
		if err != nil {
			moduleErr = err
			return
		}
		m, err := micdsp.NewModule(output, nil)
		if err != nil {
			moduleErr = err
			return
		}
		if err := m.Load(); err != nil {
			moduleErr = err
			return
		}
		module = m
	})
	return module, moduleErr
}

func setAudioFormat(sampleRate uint32, channels int) error {
	m, err := loadModule()
	if err != nil {
		return err
	}
	return m.AudioOutput().SetFormat(sampleRate, channels)
}

func levelSettings(level int) *micdsp.Settings {
	settings := micdsp.NewSettings()
	settings.SetInt(filter.SettingSuppressLevel, int64(level))
	return settings
}

func createFilter(level int) (int32, error) {
	m, err := loadModule()
	if err != nil {
		return -1, err
	}

	filterMutex.Lock()
	id := nextFilterID
	nextFilterID++
	filterMutex.Unlock()

	src, err := m.CreateSource(micdsp.NoiseSuppressFilterID, fmt.Sprintf("capi-%d", id), levelSettings(level))
	if err != nil {
		return -1, err
	}

	filterMutex.Lock()
	filterInstances[id] = src
	filterMutex.Unlock()
	return id, nil
}

func lookupFilter(handle int32) (*micdsp.FilterSource, error) {
	filterMutex.RLock()
	defer filterMutex.RUnlock()

	src, ok := filterInstances[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errUnknownHandle, handle)
	}
	return src, nil
}

func updateFilter(handle int32, level int) error {
	src, err := lookupFilter(handle)
	if err != nil {
		return err
	}
	src.Update(levelSettings(level))
	return nil
}

// filterPlanes runs frames samples of each plane through the filter in place.
func filterPlanes(handle int32, planes [][]float32, frames int) error {
	src, err := lookupFilter(handle)
	if err != nil {
		return err
	}
	for ch, plane := range planes {
		if len(plane) < frames {
			return fmt.Errorf("plane %d holds %d samples, want %d", ch, len(plane), frames)
		}
	}
	src.FilterAudio(&audio.Block{Data: planes, Frames: frames})
	return nil
}

func destroyFilter(handle int32) {
	filterMutex.Lock()
	src, ok := filterInstances[handle]
	delete(filterInstances, handle)
	filterMutex.Unlock()

	if ok {
		src.Destroy()
	}
}

// floatPlane views a C float array as a Go slice; nil stays nil.
func floatPlane(ptr *C.float, frames int) []float32 {
	if ptr == nil || frames <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(ptr)), frames)
}

// micdsp_set_audio_format sets the process-wide audio output format.
// Returns 0 on success and -1 on error.
//
//export micdsp_set_audio_format
func micdsp_set_audio_format(sample_rate C.uint32_t, channels C.int) C.int {
	if err := setAudioFormat(uint32(sample_rate), int(channels)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "micdsp_set_audio_format",
			"sample_rate": uint32(sample_rate),
			"channels":    int(channels),
			"error":       err.Error(),
		}).Error("Failed to set audio format")
		return -1
	}
	return 0
}

// noise_suppress_create creates a filter with the given suppression level.
// Returns a positive handle, or -1 on error.
//
//export noise_suppress_create
func noise_suppress_create(level C.int) C.int32_t {
	id, err := createFilter(int(level))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noise_suppress_create",
			"level":    int(level),
			"error":    err.Error(),
		}).Error("Failed to create noise suppression filter")
		return -1
	}
	return C.int32_t(id)
}

// noise_suppress_update applies a new suppression level and rereads the
// audio format. Returns 0 on success and -1 for an unknown handle.
//
//export noise_suppress_update
func noise_suppress_update(handle C.int32_t, level C.int) C.int {
	if err := updateFilter(int32(handle), int(level)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noise_suppress_update",
			"handle":   int32(handle),
			"error":    err.Error(),
		}).Warn("Filter update failed")
		return -1
	}
	return 0
}

// noise_suppress_filter_audio filters one block of planar float samples in
// place. right may be NULL for mono. Returns 0 on success and -1 on error.
//
//export noise_suppress_filter_audio
func noise_suppress_filter_audio(handle C.int32_t, left, right *C.float, frames C.uint32_t) C.int {
	if left == nil {
		return -1
	}

	n := int(frames)
	planes := [][]float32{floatPlane(left, n)}
	if right != nil {
		planes = append(planes, floatPlane(right, n))
	}

	if err := filterPlanes(int32(handle), planes, n); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noise_suppress_filter_audio",
			"handle":   int32(handle),
			"frames":   n,
			"error":    err.Error(),
		}).Warn("Filter audio failed")
		return -1
	}
	return 0
}

// noise_suppress_destroy releases a filter. Unknown handles are ignored.
//
//export noise_suppress_destroy
func noise_suppress_destroy(handle C.int32_t) {
	destroyFilter(int32(handle))
}

// noise_suppress_default_level returns the default suppression level in dB.
//
//export noise_suppress_default_level
func noise_suppress_default_level() C.int {
	return C.int(limits.DefaultSuppressLevel)
}
