package formhttp

import (
	"fmt"
	"net/http"
	"strings"

	"machpredict/internal/form"
	"machpredict/internal/logger"
	"machpredict/internal/schema"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	forms  *form.Service
	models StatusReporter
	charts ChartRenderer
}

type pageData struct {
	Tools    []form.ToolForm
	Selected map[string]bool
	Values   map[string]map[string]string
	Notice   string
	Outcome  *form.Outcome
	ChartDoc string
}

func (h *handlers) register(group *gin.RouterGroup) {
	group.GET("/tools", h.listTools)
	group.GET("/tools/:tool", h.getTool)
	group.GET("/tools/:tool/grades/:grade", h.getGrade)
	group.POST("/predict", h.predictJSON)
	group.GET("/models", h.listModels)
}

func (h *handlers) newPage() pageData {
	return pageData{
		Tools:    h.forms.DescribeAll(),
		Selected: map[string]bool{},
		Values:   map[string]map[string]string{},
	}
}

func (h *handlers) page(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.newPage())
}

func (h *handlers) predictForm(c *gin.Context) {
	data := h.newPage()
	if err := c.Request.ParseForm(); err != nil {
		data.Notice = "Could not read the form: " + err.Error()
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}
	sub := form.ParseForm(c.Request.PostForm)
	for _, tool := range sub.Tools {
		data.Selected[tool] = true
	}
	for tool, in := range sub.Inputs {
		vals := map[string]string{"grade": in.Grade}
		for k, v := range in.Values {
			vals[k] = fmt.Sprint(v)
		}
		data.Values[tool] = vals
	}
	if len(sub.Tools) == 0 {
		data.Notice = "Select at least one tool."
		c.HTML(http.StatusOK, "index.html", data)
		return
	}
	out := h.forms.Submit(c.Request.Context(), sub)
	data.Outcome = &out
	if h.charts != nil {
		doc, err := h.charts(out)
		if err != nil {
			logger.Warnf("chart render failed id=%s: %v", out.ID, err)
		} else {
			data.ChartDoc = string(doc)
		}
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *handlers) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.forms.DescribeAll()})
}

func (h *handlers) getTool(c *gin.Context) {
	tf, err := h.forms.Describe(c.Param("tool"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tf)
}

func (h *handlers) getGrade(c *gin.Context) {
	table := h.forms.Table()
	tool, grade := c.Param("tool"), c.Param("grade")
	tol, err := table.ToleranceRange(tool, grade)
	if err != nil {
		writeError(c, err)
		return
	}
	sf, err := table.SurfaceFinishRange(tool, grade)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tool":           tool,
		"grade":          grade,
		"tolerance":      tol,
		"surface_finish": sf,
	})
}

func (h *handlers) predictJSON(c *gin.Context) {
	var sub form.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(sub.Tools) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tools cannot be empty"})
		return
	}
	out := h.forms.Submit(c.Request.Context(), sub)
	c.JSON(outcomeStatus(out), out)
}

func (h *handlers) listModels(c *gin.Context) {
	if h.models == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model registry not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": h.models.Status()})
}

// outcomeStatus picks the response code of a whole submission: any successful
// tool makes it a 200, otherwise the dominant failure decides.
func outcomeStatus(out form.Outcome) int {
	if len(out.Results) == 0 {
		return http.StatusBadRequest
	}
	unknown, invalid := 0, 0
	for _, r := range out.Results {
		switch {
		case r.OK():
			return http.StatusOK
		case r.ErrorKind == "unknown_tool":
			unknown++
		case r.Invalid:
			invalid++
		}
	}
	switch {
	case unknown == len(out.Results):
		return http.StatusNotFound
	case invalid > 0:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeError(c *gin.Context, err error) {
	kind := schema.Kind(err)
	status := http.StatusInternalServerError
	switch {
	case kind == "unknown_tool" || kind == "unknown_grade":
		status = http.StatusNotFound
	case schema.IsValidation(err):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

// toolID makes a tool name safe for use as an HTML id.
func toolID(tool string) string {
	return "tool-" + strings.ToLower(strings.ReplaceAll(tool, " ", "-"))
}
