// Package rewrite inserts entitlement-check prologues into JVM class files.
//
// # Overview
//
// Every targeted method is rewritten so that, before its original body runs, it calls
// a static check method and throws when the check returns false:
//
//	invokestatic  check()Z
//	ifne          END
//	new           java/lang/UnsupportedOperationException
//	dup
//	invokespecial <init>()V
//	athrow
//	END:
//	<original body>
//
// A class can be presented to the rewriter many times, so each strategy also decides
// how a method that already carries the prologue is recognized.
//
// # Strategies
//
//	blind        insert unconditionally; applying it twice doubles the prologue
//	two-pass     match every target, then re-read the class and insert where missing
//	single-pass  buffer each body while matching it and replay it with or without
//	             the prologue
//	inheritance  insert an invokedynamic check bound per caller class from a
//	             capability table
//	annotate     skip methods carrying a marker annotation, mark the ones instrumented
//	wrap         rename the method to original_<name> and add a checking stub
//
// # Usage
//
//	out, err := rewrite.Rewrite(classBytes, []string{"openFile"}, rewrite.StrategyTwoPass)
//	if err != nil {
//	    return err
//	}
//	if out.Rewritten {
//	    classBytes = out.Bytes
//	}
//
// With matchers and custom check symbols:
//
//	r, err := rewrite.New(rewrite.Config{
//	    Matcher:  rewrite.NewMethodPrefixMatcher([]string{"open"}),
//	    Targets:  []string{"java/io/File.delete()Z"},
//	    Check:    rewrite.CheckSymbols{Owner: "a/Policy", Name: "allowed", Desc: "()Z",
//	        Denial: "java/lang/SecurityException"},
//	    Strategy: rewrite.StrategySinglePass,
//	})
package rewrite
