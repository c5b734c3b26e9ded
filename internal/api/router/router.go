package router

import (
	"github.com/cuongbtq/botmr-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, corsOrigins []string) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(corsOrigins))

	system := handler.NewSystemHandler(deps)
	r.GET("/", system.Root)
	r.GET("/health", system.Health)
	r.GET("/ready", system.Ready)

	// /api is kept for clients built against the unversioned API
	registerRoutes(r.Group("/api/v1"), deps, system)
	registerRoutes(r.Group("/api"), deps, system)

	return r
}

func registerRoutes(g *gin.RouterGroup, deps *handler.Dependencies, system *handler.SystemHandler) {
	recordingHandler := handler.NewRecordingHandler(deps)
	meetingHandler := handler.NewMeetingHandler(deps)
	taskHandler := handler.NewTaskHandler(deps)
	messageHandler := handler.NewMessageHandler(deps)
	settingsHandler := handler.NewSettingsHandler(deps)

	g.GET("/health", system.Health)
	g.GET("/ready", system.Ready)

	recordings := g.Group("/recordings")
	{
		recordings.POST("/start", recordingHandler.StartRecording)
		recordings.POST("/heartbeat", recordingHandler.Heartbeat)
		recordings.POST("/stop", recordingHandler.StopRecording)
		recordings.POST("/:session_id/pause", recordingHandler.PauseRecording)
		recordings.POST("/:session_id/resume", recordingHandler.ResumeRecording)
		recordings.GET("/:session_id/status", recordingHandler.GetStatus)
		recordings.POST("/:session_id/upload/chunk", recordingHandler.UploadChunk)
	}

	meetings := g.Group("/meetings")
	{
		meetings.GET("", meetingHandler.ListMeetings)
		meetings.POST("", meetingHandler.CreateMeeting)
		meetings.GET("/search", meetingHandler.SearchMeetings)
		meetings.GET("/:meeting_id", meetingHandler.GetMeeting)
		meetings.PATCH("/:meeting_id", meetingHandler.UpdateMeeting)
		meetings.DELETE("/:meeting_id", meetingHandler.DeleteMeeting)
		meetings.POST("/:meeting_id/process", meetingHandler.ProcessMeeting)
		meetings.POST("/:meeting_id/results", meetingHandler.AddResults)
		meetings.GET("/:meeting_id/export", meetingHandler.ExportMeeting)
	}

	tasks := g.Group("/tasks")
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:task_id", taskHandler.GetTask)
		tasks.PATCH("/:task_id", taskHandler.UpdateTask)
		tasks.DELETE("/:task_id", taskHandler.DeleteTask)
	}

	messages := g.Group("/messages")
	{
		messages.GET("", messageHandler.ListMessages)
		messages.POST("", messageHandler.CreateMessage)
		messages.GET("/:message_id", messageHandler.GetMessage)
		messages.DELETE("/:message_id", messageHandler.DeleteMessage)
	}

	settings := g.Group("/settings")
	{
		settings.GET("", settingsHandler.GetSettings)
		settings.POST("", settingsHandler.ReplaceSettings)
		settings.PATCH("", settingsHandler.PatchSettings)
	}

	jobs := g.Group("/jobs")
	{
		jobs.GET("/stats", system.JobStats)
		jobs.GET("/:job_id", system.GetJob)
	}

	if deps.Events != nil {
		g.GET("/events/ws", gin.WrapH(deps.Events))
	}
}
