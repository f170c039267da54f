package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/openactuator/motorkit/comms"
	"github.com/openactuator/motorkit/rig"
	"gopkg.in/yaml.v2"
)

type EnvConfig struct {
	JWT_ISSUER string `env:"JWT_ISSUER" envDefault:"DEV"`
	JWT_SECRET string `env:"JWT_SECRET" envDefault:"motorkit-dev-secret"`
	DEBUG      bool   `env:"DEBUG" envDefault:"0"`
	SRCDIR     string `env:"SRCDIR" envDefault:"."`
	DATADIR    string `env:"DATADIR" envDefault:""`
	DB         *storm.DB
	Conductor  *comms.Conductor
	Drive      *rig.Drive
	Simulated  bool
}

var (
	ENV *EnvConfig
)

func init() {
	// Load main config
	ENV = new(EnvConfig)
	env.Parse(ENV)

	// setup database
	// make sure to init all of the structs
	var dbFile string
	if ENV.DATADIR != "" {
		dbFile = filepath.Join(ENV.DATADIR, "live.db")
	} else {
		dbFile, _ = filepath.Abs("./tmp/dev.db")
		dir := filepath.Dir(dbFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.Mkdir(dir, 0755)
		}
	}

	db, err := openDb(dbFile)
	if err != nil {
		panic(err)
	}
	ENV.DB = db

	return
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Run the rig in simulator mode")
	port := flag.String("port", "0.0.0.0:80", "Specify the ip:port to listen on")
	flag.Parse()

	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	defer ENV.DB.Close() // close database when finished

	var filename string
	var err error
	if ENV.DATADIR != "" {
		filename = filepath.Join(ENV.DATADIR, "rig_config.yaml")
	} else {
		filename, err = filepath.Abs(ENV.SRCDIR + "/rig_config.yaml")
		if err != nil {
			panic(err)
		}
	}
	yamlFile, err := ioutil.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("Unable to read yaml file: %v", err))
	}

	var config rig.Config
	err = yaml.Unmarshal(yamlFile, &config)
	if err != nil {
		panic(fmt.Sprintf("Unable to unmarshal yaml: %v", err))
	}

	var device *rig.Rig

	ENV.Simulated = *simulated
	if ENV.Simulated {
		println("Creating simulator")
		device, err = rig.NewRigSimulator(&config)
	} else {
		device, err = rig.NewRig(&config)
	}
	if err != nil {
		panic(fmt.Sprintf("Unable to initialize rig: %v", err))
	}
	defer device.AllStop()

	// replay any saved servo calibrations onto the fresh rig
	if err = applyCalibrations(ENV.DB, device); err != nil {
		log.Printf("Unable to apply servo calibrations: %v", err)
	}

	if config.Drive != nil {
		ENV.Drive = rig.NewDrive(device, config.Drive.Left, config.Drive.Right)
	}

	ENV.Conductor = comms.NewConductor(device)
	go ENV.Conductor.UpdateClients()

	//---
	// Create a local shell
	//---
	{
		motorNames := func([]string) (keys []string) {
			for k := range device.Motors {
				keys = append(keys, k)
			}
			return
		}
		servoNames := func([]string) (keys []string) {
			for k := range device.Servos {
				keys = append(keys, k)
			}
			return
		}
		stepperNames := func([]string) (keys []string) {
			for k := range device.Steppers {
				keys = append(keys, k)
			}
			return
		}

		shell := ishell.New()
		shell.Println("Motorkit development shell")
		shell.ShowPrompt(true)
		shell.AddCmd(&ishell.Cmd{
			Name: "createsuperuser",
			Help: "createsuperuser <email> <password>",
			Func: func(c *ishell.Context) {
				// disable the '>>>' for cleaner same line input.
				c.ShowPrompt(false)
				defer c.ShowPrompt(true) // yes, revert when done.

				// get email
				var email string
				if len(c.Args) >= 1 {
					email = c.Args[0]
				} else {
					c.Print("Email: ")
					email = c.ReadLine()
				}

				// get password
				var password string
				if len(c.Args) >= 2 {
					password = c.Args[1]
				} else {
					c.Print("Password: ")
					password = c.ReadPassword()
				}

				// create user
				user := &User{
					Email: email,
					Name:  email,
					Admin: true,
				}
				user.SetPassword([]byte(password))
				err := ENV.DB.Save(user)
				if err != nil {
					panic(err)
				}

				c.Println("Superuser created")
			},
		})

		// Add device specific commands
		shell.AddCmd(&ishell.Cmd{
			Name:      "throttle",
			Completer: motorNames,
			Help:      "throttle <name> <value -1..1>",
			Func: func(c *ishell.Context) {
				name := c.Args[0]
				value, _ := strconv.ParseFloat(c.Args[1], 64)
				c.Printf("Setting motor %s throttle to %.2f\n", name, value)
				if err := device.SetThrottle(name, value); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name:      "coast",
			Completer: motorNames,
			Help:      "coast <name>",
			Func: func(c *ishell.Context) {
				name := c.Args[0]
				c.Printf("Coasting motor %s\n", name)
				if err := device.CoastMotor(name); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name:      "angle",
			Completer: servoNames,
			Help:      "angle <name> <degrees>",
			Func: func(c *ishell.Context) {
				name := c.Args[0]
				angle, _ := strconv.ParseFloat(c.Args[1], 64)
				c.Printf("Moving servo %s to %.1f\n", name, angle)
				if err := device.SetAngle(name, angle); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name:      "step",
			Completer: stepperNames,
			Help:      "step <name> <count> [style]",
			Func: func(c *ishell.Context) {
				name := c.Args[0]
				count, _ := strconv.Atoi(c.Args[1])
				var styleName string
				if len(c.Args) >= 3 {
					styleName = c.Args[2]
				}
				style, err := comms.ParseStyle(styleName)
				if err != nil {
					c.Err(err)
					return
				}
				pos, err := device.Step(name, count, style)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("Stepper %s now at microstep %d\n", name, pos)
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name:      "release",
			Completer: stepperNames,
			Help:      "release <name>",
			Func: func(c *ishell.Context) {
				name := c.Args[0]
				c.Printf("Releasing stepper %s\n", name)
				if err := device.ReleaseStepper(name); err != nil {
					c.Err(err)
				}
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "state",
			Help: "Reads the current state of the rig",
			Func: func(c *ishell.Context) {
				state := device.GetState()
				out, _ := yaml.Marshal(state)
				c.Println(string(out))
			},
		})

		shell.AddCmd(&ishell.Cmd{
			Name: "allstop",
			Help: "Stop every device on the rig",
			Func: func(c *ishell.Context) {
				if err := device.AllStop(); err != nil {
					c.Err(err)
				}
			},
		})

		// Start an instance of the shell so it can be controlled from the CLI
		go shell.Start()
	}

	//---
	// Build the API routes
	//---
	r.Route("/api", func(r chi.Router) {
		// login
		r.Post("/login", Login)

		r.Route("/", func(r chi.Router) {
			// Seek, verify and validate JWT tokens
			r.Use(ValidateJWT)

			r.Get("/refresh_token", JWTRefresh)
			r.Get("/state", GetState)

			r.Post("/motor/{name}/throttle", SetThrottle)
			r.Post("/motor/{name}/coast", CoastMotor)

			r.Post("/servo/{name}/angle", SetAngle)
			r.Post("/servo/{name}/disable", DisableServo)
			r.Post("/servo/{name}/calibrate", CalibrateServo)

			r.Post("/stepper/{name}/step", Step)
			r.Post("/stepper/{name}/release", ReleaseStepper)

			r.Post("/drive", SetDrive)
		})
	})

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		if !ENV.DEBUG {
			// Enable JWT validation in production
			r.Use(ValidateJWT)
		} else {
			fmt.Println("Running in debug mode. Authentication disabled.")
		}

		r.Get("/state", ENV.Conductor.ServeHTTP)
	})

	fmt.Println("Listening on port", *port)
	if err := http.ListenAndServe(*port, r); err != nil {
		log.Fatal(err)
	}
}
