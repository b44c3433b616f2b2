package controllers

import (
	"unicode/utf8"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	deployv1alpha1 "github.com/bayleafwalker/nodeselect/api/v1alpha1"
)

const (
	DeploymentConditionRuntimeSelected = "RuntimeSelected"
)

// maxConditionMessage is the API server's limit on metav1.Condition.Message.
const maxConditionMessage = 32768

func setDeploymentCondition(sd *deployv1alpha1.SiteDeployment, condition metav1.Condition) {
	if sd == nil {
		return
	}
	condition.Message = truncateMessage(condition.Message, maxConditionMessage)
	condition.ObservedGeneration = sd.Generation
	meta.SetStatusCondition(&sd.Status.Conditions, condition)
}

// truncateMessage cuts msg to at most limit bytes without splitting a rune.
func truncateMessage(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
