// Command simple runs an introspection server for a two-state container
// and alternates its active state, so a monitor on the same broker sees
// structure, startup status and the following transitions.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tue-robotics/executive-smach/introspection"
	"github.com/tue-robotics/executive-smach/mqtt"
	"github.com/tue-robotics/executive-smach/smach"
)

func main() {
	var url string
	var name string
	flag.StringVar(&url, "url", "tcp://localhost:1883", "mqtt url")
	flag.StringVar(&name, "name", "root", "introspection server name")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	sm := smach.NewStateMachine("done")
	if err := sm.Add("A", smach.NewState("advance"), map[string]string{"advance": "B"}); err != nil {
		log.Fatal().Err(err).Msg("could not add state A")
	}
	if err := sm.Add("B", smach.NewState("retreat", "finish"), map[string]string{"retreat": "A", "finish": "done"}); err != nil {
		log.Fatal().Err(err).Msg("could not add state B")
	}
	if err := sm.CheckConsistency(); err != nil {
		log.Fatal().Err(err).Msg("inconsistent state machine")
	}
	sm.UserData().Set("mission", "patrol")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connector, err := mqtt.NewConnector(url, uuid.NewString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create connector")
	}
	if err := connector.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not connect")
	}
	defer connector.Disconnect(context.Background())

	server := introspection.NewServer(name, sm, "/"+name, connector, introspection.WithLogger(log))
	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not start introspection server")
	}
	defer server.Stop()

	if err := sm.SetActiveStates("A"); err != nil {
		log.Fatal().Err(err).Msg("could not activate state A")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	active := "A"

	for {
		select {
		case <-ticker.C:
			if active == "A" {
				active = "B"
			} else {
				active = "A"
			}
			if err := sm.SetActiveStates(active); err != nil {
				log.Warn().Err(err).Msg("could not switch active state")
			}
		case <-sigChan:
			log.Info().Msg("shutting down")
			return
		}
	}
}
