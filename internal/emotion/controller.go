package emotion

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type EmotionController struct {
	classifier Classifier
}

func NewEmotionController(classifier Classifier) *EmotionController {
	return &EmotionController{
		classifier: classifier,
	}
}

type AnalyzeRequest struct {
	Entry string `json:"entry" binding:"required"`
}

// Analyze classifies the posted journal entry.
func (ec *EmotionController) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry is required"})
		return
	}

	label, err := ec.classifier.Classify(c.Request.Context(), req.Entry)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry is required"})
			return
		}
		logrus.WithError(err).Error("Failed to analyze entry")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"emotion": label})
}
