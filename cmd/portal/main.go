package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/parent-portal/parent_portal/internal/academics"
	"github.com/parent-portal/parent_portal/internal/admin"
	"github.com/parent-portal/parent_portal/internal/auth"
	"github.com/parent-portal/parent_portal/internal/backend"
	"github.com/parent-portal/parent_portal/internal/backendtest"
	"github.com/parent-portal/parent_portal/internal/config"
	"github.com/parent-portal/parent_portal/internal/logging"
	"github.com/parent-portal/parent_portal/internal/notifications"
	"github.com/parent-portal/parent_portal/internal/session"
	"github.com/parent-portal/parent_portal/internal/storage"
	"github.com/parent-portal/parent_portal/internal/students"
)

const demoPhone = "5550000000"

func main() {
	_ = godotenv.Load()

	// Offline demo: run the fake provider in-process and point the client
	// at it.
	if os.Getenv("PORTAL_FAKE_BACKEND") == "1" {
		srv := backendtest.New("local-dev-key")
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "start fake backend: %v\n", err)
			os.Exit(1)
		}
		defer srv.Close()
		seedDemoData(srv)
		os.Setenv("BACKEND_URL", srv.URL())
		os.Setenv("BACKEND_API_KEY", "local-dev-key")
		fmt.Printf("fake backend at %s (any login receives code %s)\n", srv.URL(), backendtest.FixedOTP)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	var store storage.Store
	if cfg.RedisURL != "" {
		client, err := storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		store = storage.NewRedis(client, cfg.AppName)
	} else {
		store, err = storage.NewFile(cfg.StorageDir)
		if err != nil {
			logger.Error("open storage dir", "error", err)
			os.Exit(1)
		}
	}

	client := backend.NewHTTPClient(cfg.BackendURL, cfg.BackendAPIKey, cfg.RequestTimeout, logger)
	authSvc := auth.NewService(client, logger)

	var machine *session.Machine
	machine = session.New(store, authSvc, logger, func(r session.Redirect) {
		fmt.Printf("-> navigate %s\n", r.Target)
		machine.SetArea(areaFor(r.Target))
	})
	client.OnUnauthorized(machine.HandleUnauthorized)

	studentSvc := students.NewService(client, logger)
	academicSvc := academics.NewService(client, logger)
	adminSvc := admin.NewService(client, logger)
	center := notifications.NewCenter(store, authSvc, logger)

	machine.Bootstrap(ctx)
	fmt.Printf("state: %s\n", machine.State())

	repl(ctx, machine, studentSvc, academicSvc, adminSvc, center)
}

func areaFor(route string) session.Area {
	switch route {
	case session.RouteOnboarding:
		return session.AreaOnboarding
	case session.RouteLogin:
		return session.AreaAuth
	default:
		return session.AreaParent
	}
}

func repl(ctx context.Context, machine *session.Machine, studentSvc *students.Service, academicSvc *academics.Service, adminSvc *admin.Service, center *notifications.Center) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`type "help" for commands`)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			fmt.Println(`state | onboard | login <phone> | verify <code> | whoami | name <name>
children | add-child <name> | attendance <child> | performance <child>
homework <child> | done <assignment> | timetable <child> | syllabus <child>
fees <child> | pay <invoice> | leaves <child> | apply-leave <child> <type> <reason>
bus <child> | notifications | read <id> | prefs | logout | exit`)
		case "exit":
			return
		case "state":
			fmt.Println(machine.State())
		case "onboard":
			machine.CompleteOnboarding(ctx)
		case "login":
			if len(args) != 1 {
				fmt.Println("usage: login <phone>")
				continue
			}
			if err := machine.SignIn(ctx, args[0]); err != nil {
				fmt.Printf("login failed: %v\n", err)
				continue
			}
			fmt.Println("OTP sent")
		case "verify":
			if len(args) != 1 {
				fmt.Println("usage: verify <code>")
				continue
			}
			if err := machine.VerifyOTP(ctx, args[0]); err != nil {
				fmt.Printf("verification failed: %v\n", err)
			}
		case "whoami":
			dump(machine.CurrentUser())
		case "name":
			if len(args) == 0 {
				fmt.Println("usage: name <new name>")
				continue
			}
			name := strings.Join(args, " ")
			if err := machine.UpdateUser(ctx, auth.ProfilePatch{Name: &name}); err != nil {
				fmt.Printf("update failed: %v\n", err)
			}
		case "children":
			result(studentSvc.Children(ctx))
		case "add-child":
			if len(args) == 0 {
				fmt.Println("usage: add-child <name>")
				continue
			}
			result(studentSvc.AddChild(ctx, students.ChildProfile{Name: strings.Join(args, " ")}))
		case "attendance":
			result(studentSvc.Attendance(ctx, arg(args)))
		case "performance":
			result(studentSvc.Performance(ctx, arg(args)))
		case "homework":
			result(academicSvc.Homework(ctx, arg(args)))
		case "done":
			report(academicSvc.UpdateHomeworkStatus(ctx, arg(args), academics.StatusCompleted))
		case "timetable":
			result(academicSvc.Timetable(ctx, arg(args)))
		case "syllabus":
			result(academicSvc.Syllabus(ctx, arg(args)))
		case "fees":
			result(adminSvc.Fees(ctx, arg(args)))
		case "pay":
			report(adminSvc.PayFee(ctx, arg(args)))
		case "leaves":
			result(adminSvc.Leaves(ctx, arg(args)))
		case "apply-leave":
			if len(args) < 3 {
				fmt.Println("usage: apply-leave <child> <type> <reason>")
				continue
			}
			result(adminSvc.ApplyLeave(ctx, admin.LeaveRequest{
				StudentID: args[0],
				Type:      args[1],
				Reason:    strings.Join(args[2:], " "),
			}))
		case "bus":
			result(adminSvc.BusLocation(ctx, arg(args)))
		case "notifications":
			result(center.List(ctx))
		case "read":
			report(center.MarkRead(ctx, arg(args)))
		case "prefs":
			result(center.Preferences(ctx))
		case "logout":
			machine.SignOut(ctx)
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func arg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func result[T any](v T, err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	dump(v)
}

func report(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func dump(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(string(raw))
}

func seedDemoData(srv *backendtest.Server) {
	srv.RegisterUser("+"+demoPhone, "demo-parent")
	srv.Seed("students",
		backend.Row{"id": "s1", "parent_id": "demo-parent", "name": "John", "grade": "5", "school_name": "Hillside Public School"},
		backend.Row{"id": "s2", "parent_id": "demo-parent", "name": "Sarah", "grade": "2", "school_name": "Hillside Public School"},
	)
	srv.Seed("attendance",
		backend.Row{"id": "a1", "student_id": "s1", "date": "2024-03-04", "status": "present", "check_in": "08:02"},
		backend.Row{"id": "a2", "student_id": "s1", "date": "2024-03-05", "status": "late", "check_in": "08:40", "remarks": "traffic"},
	)
	srv.Seed("homework",
		backend.Row{"id": "h1", "student_id": "s1", "subject": "Math", "title": "Fractions worksheet", "due_date": "2024-03-10", "status": "Pending"},
	)
	srv.Seed("fees",
		backend.Row{"id": "INV-001", "student_id": "s1", "title": "Tuition Fee - Term 1", "amount": 1500, "due_date": "2024-04-01", "status": "Unpaid", "date": "2024-03-01"},
	)
	srv.Seed("transport",
		backend.Row{"id": "BUS-101", "student_id": "s1", "route_id": "RT-05", "driver_name": "Rajesh Kumar", "driver_phone": "+91 98765 43210", "plate_number": "KA-01-AB-1234", "lat": 12.9716, "lng": 77.5946, "address": "MG Road, Bangalore", "status": "On Route", "estimated_arrival": "15 mins"},
	)
}
