package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mqtt2dmx/internal/config"
	"mqtt2dmx/internal/controlmqtt"
	"mqtt2dmx/internal/fixture"
	"mqtt2dmx/internal/light"
	"mqtt2dmx/internal/logger"
	"mqtt2dmx/internal/protocol"
	"mqtt2dmx/internal/transport"
	"mqtt2dmx/internal/universe"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v", err)
		os.Exit(1)
	}

	client := controlmqtt.NewClient(log, ConvertConfigMQTT(cfg.MQTT))
	dispatcher := light.NewDispatcher(log, client)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	for _, uc := range cfg.Universes {
		if err := buildUniverse(ctx, log, dispatcher, uc); err != nil {
			log.With(logger.Fields{"module": "main"}).Errorf("universe %d: %v", uc.Universe, err)
			os.Exit(1)
		}
	}

	cmdCh := make(chan controlmqtt.Command, 10)
	go dispatcher.Run(ctx, cmdCh)

	if err = client.Start(ctx, cmdCh); err != nil {
		log.Error("failed to start MQTT service:", err.Error())
		cancel()
	} else {
		dispatcher.PublishAll()
	}

	<-ctx.Done()

	if err := client.Stop(); err != nil {
		log.Error("failed to stop MQTT service:", err.Error())
	}

	log.Info("shutdown complete")
}

// buildUniverse wires one universe: codec, socket, channel buffer, gateway
// and the configured lights. The gateway driver starts once every light has
// preloaded its defaults.
func buildUniverse(ctx context.Context, log logger.Logger, dispatcher *light.Dispatcher, uc config.UniverseConf) error {
	codec, err := protocol.New(uc.Protocol)
	if err != nil {
		return err
	}
	if err := codec.ValidateUniverse(uc.Universe); err != nil {
		return err
	}

	port := uc.Port
	if port == 0 {
		port = codec.DefaultPort()
	}
	sender, err := transport.NewUDP(uc.Host, port)
	if err != nil {
		return err
	}

	fmap, err := fixture.NewMap(uc.DMXChannels)
	if err != nil {
		return err
	}

	buf := universe.NewBuffer(fmap.Size(), uc.DefaultLevel)
	gw := universe.NewGateway(log, codec, sender, uc.Universe, buf)

	for _, lc := range uc.Lights {
		fx, err := fixture.New(lc.Name, lc.Channel, fixture.Type(lc.Type), lc.ChannelSetup)
		if err != nil {
			return err
		}
		if err := fmap.Register(fx); err != nil {
			return err
		}

		level := uc.DefaultLevel
		if lc.DefaultLevel != nil {
			level = *lc.DefaultLevel
		}
		lt := light.NewLight(log, fx, gw, light.Options{
			DefaultLevel: level,
			DefaultRGB:   lc.DefaultRGB,
			WhiteValue:   lc.WhiteValue,
			FadeTime:     time.Duration(lc.Transition * float64(time.Second)),
		})
		dispatcher.Add(uc.Universe, lt)
	}

	gw.Start(ctx, uc.SendOnStartup())
	log.With(logger.Fields{"module": "main"}).Infof(
		"universe %d: %s to %s, %d channels, %d lights",
		uc.Universe, codec.Name(), sender.Addr(), fmap.Size(), len(uc.Lights))

	go func() {
		<-ctx.Done()
		_ = sender.Close()
	}()
	return nil
}

// ConvertConfigMQTT maps the file structure onto the client settings.
func ConvertConfigMQTT(cfg config.MQTTConf) controlmqtt.MQTTConf {
	return controlmqtt.MQTTConf{
		ClientID: cfg.ClientID,
		Schema:   "tcp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Qos:      cfg.Qos,
	}
}
