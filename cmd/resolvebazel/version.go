package main

const resolvebazelVersion = "0.1.0"
