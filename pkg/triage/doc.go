// Package triage loads a trained disaster-message classifier and scores
// incoming messages against its category set.
//
// Quick start:
//
//	c, err := triage.Load("model.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	cats, _ := c.Predict("people trapped, we need water and medicine")
//	fmt.Println(cats) // [water medical_help]
//
// The Classifier is safe for concurrent use. Create once, reuse across
// requests. Models are produced by the triage-train command.
package triage
