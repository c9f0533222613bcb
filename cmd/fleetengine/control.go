package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iotlog/fleetengine/internal/store"
	"github.com/iotlog/fleetengine/internal/transport"
	"github.com/iotlog/fleetengine/internal/util"
	"github.com/iotlog/fleetengine/pkg/core"
)

// Engine lifecycle and voyage commands, served alongside the playback
// and measure commands from internal/transport.
const (
	CmdVersion = ":VERSION:"
	CmdStatus  = ":STATUS:"

	CmdLoadRoute  = ":LOAD:ROUTE:"
	CmdLoadRegion = ":LOAD:REGION:"

	CmdVoyageSave   = ":VOYAGE:SAVE:"
	CmdVoyageList   = ":VOYAGE:LIST:"
	CmdVoyageReplay = ":VOYAGE:REPLAY:"
	CmdVoyageDelete = ":VOYAGE:DELETE:"
)

const fetchTimeout = 30 * time.Second

// runControlLoop reads commands from the control channel, one per
// line: a command name followed by pipe-separated arguments, e.g.
//
//	:LOAD:ROUTE:|vessel-244660799|1717200000|1717286400
//	:PLAYBACK:START:|route
//	:PLAYBACK:SEEK:|1717203600000
//
// and prints each handler result as JSON.
func runControlLoop(e *engine, in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		args := make([]string, 0, len(parts)-1)
		for _, a := range parts[1:] {
			args = append(args, util.CleanArg(a))
		}
		cmd := transport.Command{
			Name:      strings.TrimSpace(parts[0]),
			Args:      args,
			Timestamp: time.Now(),
		}

		result, err := e.router.Dispatch(cmd)
		if err != nil {
			Logger.Error("Command failed", "command", cmd.Name, "error", err)
			fmt.Printf("ERROR %s: %v\n", cmd.Name, err)
			continue
		}
		printResult(cmd.Name, result)
	}

	if err := scanner.Err(); err != nil {
		Logger.Error("Control channel read error", "error", err)
	}
}

func printResult(command string, result any) {
	if result == nil {
		fmt.Printf("OK %s\n", command)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		fmt.Printf("OK %s (unprintable result: %v)\n", command, err)
		return
	}
	fmt.Printf("OK %s %s\n", command, data)
}

// registerLifecycleHandlers serves version and status queries.
func registerLifecycleHandlers(e *engine) {
	e.router.Register(CmdVersion, func(c transport.Command) (any, error) {
		return map[string]string{
			"engine":    EngineName,
			"version":   CurrentVersion,
			"buildDate": BuildDate,
		}, nil
	})

	e.router.Register(CmdStatus, func(c transport.Command) (any, error) {
		return e.monitor.GetEngineStatus(), nil
	})
}

// registerVoyageHandlers serves history loading and the voyage store.
func registerVoyageHandlers(e *engine) {
	e.router.Register(CmdLoadRoute, func(c transport.Command) (any, error) {
		if len(c.Args) < 3 {
			return nil, fmt.Errorf("%s needs vessel id, from and to (epoch seconds)", CmdLoadRoute)
		}
		from, to, err := parseRange(c.Args[1], c.Args[2])
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		history, err := e.client.FetchRouteHistory(ctx, c.Args[0], from, to)
		if err != nil {
			return nil, fmt.Errorf("fetching route history: %w", err)
		}
		startMs, endMs, ok := core.TimeBoundsMillis(history)
		if !ok {
			return nil, fmt.Errorf("vessel %s has no history in range", c.Args[0])
		}

		e.session.SetRouteData(history, startMs, endMs)
		Logger.Info("Route history loaded", "vessel", c.Args[0], "points", len(history))
		return map[string]any{"points": len(history), "startMs": startMs, "endMs": endMs}, nil
	}, transport.Logged())

	e.router.Register(CmdLoadRegion, func(c transport.Command) (any, error) {
		if len(c.Args) < 3 {
			return nil, fmt.Errorf("%s needs region id, from and to (epoch seconds)", CmdLoadRegion)
		}
		from, to, err := parseRange(c.Args[1], c.Args[2])
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		slices, err := e.client.FetchRegionSlices(ctx, c.Args[0], from, to)
		if err != nil {
			return nil, fmt.Errorf("fetching region slices: %w", err)
		}
		startMs, endMs, ok := core.TimeBoundsMillisRegion(slices)
		if !ok {
			return nil, fmt.Errorf("region %s has no slices in range", c.Args[0])
		}

		e.session.SetRegionData(slices, startMs, endMs)
		Logger.Info("Region slices loaded", "region", c.Args[0], "slices", len(slices))
		return map[string]any{"slices": len(slices), "startMs": startMs, "endMs": endMs}, nil
	}, transport.Logged())

	e.router.Register(CmdVoyageSave, func(c transport.Command) (any, error) {
		if len(c.Args) < 2 {
			return nil, fmt.Errorf("%s needs vessel id and a voyage name", CmdVoyageSave)
		}

		history := e.session.RouteHistory()
		if len(history) == 0 {
			return nil, fmt.Errorf("no route history loaded")
		}
		startMs, endMs, _ := core.TimeBoundsMillis(history)

		encoded, err := store.EncodeHistory(history)
		if err != nil {
			return nil, err
		}
		v := &store.Voyage{
			VesselID:  c.Args[0],
			Name:      c.Args[1],
			StartTime: startMs,
			EndTime:   endMs,
			History:   encoded,
		}
		if err := e.backend.SaveVoyage(v); err != nil {
			return nil, fmt.Errorf("saving voyage: %w", err)
		}
		return v, nil
	}, transport.Logged())

	e.router.Register(CmdVoyageList, func(c transport.Command) (any, error) {
		vesselID := ""
		if len(c.Args) > 0 {
			vesselID = c.Args[0]
		}
		voyages, err := e.backend.ListVoyages(vesselID)
		if err != nil {
			return nil, fmt.Errorf("listing voyages: %w", err)
		}
		return voyages, nil
	})

	e.router.Register(CmdVoyageReplay, func(c transport.Command) (any, error) {
		id, err := parseVoyageID(c.Args)
		if err != nil {
			return nil, err
		}
		v, err := e.backend.GetVoyage(id)
		if err != nil {
			return nil, fmt.Errorf("loading voyage %d: %w", id, err)
		}
		history, err := store.DecodeHistory(v.History)
		if err != nil {
			return nil, err
		}
		if len(history) == 0 {
			return nil, fmt.Errorf("voyage %d has no history", id)
		}

		e.session.SetRouteData(history, v.StartTime, v.EndTime)
		Logger.Info("Voyage loaded for replay", "voyage", v.ID, "vessel", v.VesselID)
		return map[string]any{"points": len(history), "startMs": v.StartTime, "endMs": v.EndTime}, nil
	}, transport.Logged())

	e.router.Register(CmdVoyageDelete, func(c transport.Command) (any, error) {
		id, err := parseVoyageID(c.Args)
		if err != nil {
			return nil, err
		}
		if err := e.backend.DeleteVoyage(id); err != nil {
			return nil, fmt.Errorf("deleting voyage %d: %w", id, err)
		}
		return "deleted", nil
	}, transport.Logged())
}

func parseRange(fromArg, toArg string) (from, to int64, err error) {
	from, err = strconv.ParseInt(fromArg, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing range start %q: %w", fromArg, err)
	}
	to, err = strconv.ParseInt(toArg, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing range end %q: %w", toArg, err)
	}
	return from, to, nil
}

func parseVoyageID(args []string) (uint, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing voyage id")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing voyage id %q: %w", args[0], err)
	}
	return uint(id), nil
}
