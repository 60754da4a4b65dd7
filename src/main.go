package main

import (
	"errors"
	"fmt"
	"hbs/src/boot"
	"hbs/src/bus"
	"hbs/src/common"
	"hbs/src/config"
	"hbs/src/middlewares"
	"hbs/src/types"
	"hbs/src/utils"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gookit/goutil/dump"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	engineiotypes "github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

const (
	apiPrefix string = "/api/v1"
)

var appBus = bus.New()

var reservableDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	if ok {
		today := time.Now()
		if today.After(datetime) {
			return false
		}
	}
	return true
}

var gtfield validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue := field.Interface().(string)
	fielddatetime, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	if ok {
		if fielddatetime.After(datetime) {
			return false
		}
	}
	return true
}

var ltfield validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue := field.Interface().(string)
	fielddatetime, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	if ok {
		if datetime.After(fielddatetime) {
			return false
		}
	}
	return true
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/register", func(ctx *gin.Context) {
			var body types.RegisterRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user, err := common.RegisterUser(&body)
			if err != nil {
				log.Printf("Error on RegisterUser: %s\n", err.Error())
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
		}).
		POST("/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user, err := common.LoginUser(&body)
			if err != nil {
				log.Printf("Error on LoginUser: %s\n", err.Error())
				ctx.JSON(utils.ErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		})
	return guest
}

func setupSocketServer(r *gin.Engine) *socket.Server {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	c.SetPingInterval(time.Second)
	c.SetPingTimeout(200 * time.Millisecond)
	c.SetMaxHttpBufferSize(1_000_000)
	c.SetConnectTimeout(time.Second)
	c.SetCors(&engineiotypes.Cors{
		Origin:      "*",
		Credentials: true,
	})

	wss := socket.NewServer(nil, nil)
	wss.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		connID := string(client.Id())
		fmt.Println("[newclient]: ", connID, client.Nsp().Name())
		if config.API_ENV == "local" {
			dump.P(client.Handshake().Auth)
		}

		client.On("join", func(args ...any) {
			token := ""
			if auth, ok := client.Handshake().Auth.(map[string]any); ok {
				token, _ = auth["token"].(string)
			}
			if token == "" && len(args) > 0 {
				token, _ = args[0].(string)
			}
			claims, err := utils.VerifyJWT(token)
			if err != nil {
				log.Printf("join rejected for [%s]: %s\n", connID, err.Error())
				client.Emit("error", gin.H{"error": types.ErrUnauthenticated.Error()})
				return
			}
			uid, err := strconv.Atoi(claims.Subject)
			if err != nil || uid < 1 {
				client.Emit("error", gin.H{"error": types.ErrUnauthenticated.Error()})
				return
			}
			appBus.Join(uint(uid), connID, client)
			client.Emit("joined", gin.H{"id": uid})
		})

		client.On("send-message", func(args ...any) {
			senderID, ok := appBus.PrincipalOf(connID)
			if !ok {
				client.Emit("error", gin.H{"error": types.ErrUnauthenticated.Error()})
				return
			}
			if len(args) < 1 {
				return
			}
			payload, ok := args[0].(map[string]any)
			if !ok {
				client.Emit("error", gin.H{"error": "bad payload"})
				return
			}
			body := types.CreateMessageRequestBody{}
			if v, ok := payload["receiver_id"].(float64); ok {
				body.ReceiverID = uint(v)
			}
			body.Body, _ = payload["body"].(string)
			if v, ok := payload["reservation_id"].(float64); ok {
				rid := uint(v)
				body.ReservationID = &rid
			}
			if v, ok := payload["property_id"].(float64); ok {
				pid := uint(v)
				body.PropertyID = &pid
			}
			if body.ReceiverID == 0 || body.Body == "" {
				client.Emit("error", gin.H{"error": "bad payload"})
				return
			}
			if _, err := common.SendMessage(appBus, senderID, &body); err != nil {
				log.Printf("Error on SendMessage over socket: %s\n", err.Error())
				client.Emit("error", gin.H{"error": err.Error()})
				return
			}
		})

		client.On("typing", func(args ...any) {
			senderID, ok := appBus.PrincipalOf(connID)
			if !ok {
				return
			}
			if len(args) < 1 {
				return
			}
			payload, ok := args[0].(map[string]any)
			if !ok {
				return
			}
			peer, _ := payload["peer_id"].(float64)
			isTyping, _ := payload["is_typing"].(bool)
			if peer == 0 {
				return
			}
			appBus.Push(uint(peer), "typing", gin.H{"peer_id": senderID, "is_typing": isTyping})
		})

		client.On("read-receipt", func(args ...any) {
			actorID, ok := appBus.PrincipalOf(connID)
			if !ok {
				return
			}
			if len(args) < 1 {
				return
			}
			id, ok := args[0].(float64)
			if !ok {
				return
			}
			if err := common.MarkMessageRead(appBus, uint(id), actorID); err != nil {
				log.Printf("Error on MarkMessageRead over socket: %s\n", err.Error())
			}
		})

		client.On("disconnect", func(args ...any) {
			appBus.Leave(connID)
		})
	})

	r.GET("/socket.io/*any", gin.WrapH(wss.ServeHandler(c)))
	r.POST("/socket.io/*any", gin.WrapH(wss.ServeHandler(c)))
	return wss
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	defer boot.StopScheduler()
	if os.Getenv("KAFKA_BROKER") != "" {
		go boot.InitBroker()
	}

	common.RegisterNotifier(appBus)

	router := setupRouter()
	wss := setupSocketServer(router)
	if wss != nil {
		log.Println("WS server listening for connections...")
	}

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", "x-secret")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			if match {
				return true
			}
			match, _ = regexp.MatchString("app:mobile", origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("reservabledate", reservableDateValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
		v.RegisterValidation("ltdate", ltfield)
	}

	router = maintenanceModeMiddleware(router)

	guestAuthRoutes(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		reservationRoutes(authorized)
		messageRoutes(authorized)
		propertyRoutes(authorized)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	router.Run(fmt.Sprintf(":%s", port))
}
