// Package autoeval is a Go client for the autoeval scoring service.
//
// The service grades a scanned or photographed answer against a reference answer and
// returns a mark scaled to the question's maximum:
//
//	client, _ := autoeval.New("http://localhost:8080", autoeval.WithAPIKey(key))
//	f, _ := os.Open("answer.png")
//	res, err := client.Calculate(ctx, autoeval.CalculateRequest{
//	    Filename: "answer.png",
//	    Content:  f,
//	    Text:     "Photosynthesis converts light energy into chemical energy.",
//	    Marks:    10,
//	})
//	if errors.Is(err, autoeval.ErrOCRFailed) {
//	    // the document could not be read
//	}
//	fmt.Printf("%.2f / %.0f\n", res.ScaledScore, res.Marks)
package autoeval
