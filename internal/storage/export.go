package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/kinsim/internal/sim"
)

type ExportWindow struct {
	Index   int         `json:"index"`
	Start   float64     `json:"start"`
	End     float64     `json:"end"`
	Pulse   int         `json:"pulse"`
	Steps   int         `json:"steps"`
	Times   []float64   `json:"times"`
	Species [][]float64 `json:"species"`
	Extents [][]float64 `json:"extents,omitempty"`
}

type ExportData struct {
	Network   string             `json:"network"`
	Method    string             `json:"method"`
	Start     float64            `json:"t0"`
	End       float64            `json:"tf"`
	Steps     int                `json:"steps"`
	Species   []string           `json:"species"`
	Reactions []string           `json:"reactions"`
	Windows   []ExportWindow     `json:"windows"`
	Warnings  []string           `json:"warnings,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

func NewExport(name string, res *sim.Result) ExportData {
	meta := NewMetadata(name, res)
	data := ExportData{
		Network:   name,
		Method:    meta.Method,
		Start:     meta.Start,
		End:       meta.End,
		Steps:     meta.Steps,
		Species:   meta.Species,
		Reactions: meta.Reactions,
		Warnings:  meta.Warnings,
		Metrics:   res.Metrics,
	}

	for k, tr := range res.Store.Windows() {
		ew := ExportWindow{
			Index:   tr.Window,
			Start:   tr.Start,
			End:     tr.End,
			Pulse:   -1,
			Steps:   tr.Top(),
			Times:   append([]float64(nil), tr.Times[:tr.Top()+1]...),
			Species: make([][]float64, tr.Top()+1),
		}
		if k < len(res.Windows) {
			ew.Pulse = res.Windows[k].Pulse
		}
		for t := range ew.Species {
			ew.Species[t] = append([]float64(nil), tr.Species.Row(t)...)
		}
		if tr.Diagnostics() {
			ew.Extents = make([][]float64, tr.Top()+1)
			for t := range ew.Extents {
				ew.Extents[t] = append([]float64(nil), tr.Extents.Row(t)...)
			}
		}
		data.Windows = append(data.Windows, ew)
	}
	return data
}

func WriteJSON(w io.Writer, name string, res *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExport(name, res))
}

func ExportJSON(path, name string, res *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteJSON(file, name, res); err != nil {
		return err
	}
	return file.Close()
}

func ExportJSONStdout(name string, res *sim.Result) error {
	return WriteJSON(os.Stdout, name, res)
}
