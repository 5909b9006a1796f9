package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/mdanalysis/go-edr/edr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	logrus.SetLevel(logrus.InfoLevel)

	r := mux.NewRouter()
	r.HandleFunc("/edr/{path:.+}/units.json", unitsHandler)
	r.HandleFunc("/edr/{path:.+}.json", decodeHandler)

	srv := &http.Server{
		Addr:         "0.0.0.0:8082",
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}

	if err := srv.ListenAndServe(); err != nil {
		fmt.Println(err)
	}
}

// openSource opens path either from the local filesystem or, if it begins
// with s3://, from S3 using anonymous credentials.
func openSource(path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "s3://") {
		return openS3(path)
	}
	return os.Open(path)
}

func openS3(path string) (io.ReadCloser, error) {
	trimmed := strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid s3 path %q, expected s3://bucket/key", path)
	}
	bucket, key := parts[0], parts[1]

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.AnonymousCredentials,
		Region:      aws.String("us-east-1"),
	})
	if err != nil {
		return nil, err
	}
	svc := s3.New(sess)

	obj, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return obj.Body, nil
}

func unitsHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	path := vars["path"]

	f, err := openSource(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	units, err := edr.ReadUnits(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.Encode(units)
}

func decodeHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	path := vars["path"]

	includeRows := true
	if v := req.URL.Query().Get("rows"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n == 0 {
			includeRows = false
		}
	}

	f, err := openSource(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	result, err := edr.Decode(f, edr.DecodeOptions{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for _, warning := range result.Warnings {
		logrus.Warnf("%s: %s", path, warning)
	}

	if !includeRows {
		result.Rows = nil
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.Encode(result)
}
